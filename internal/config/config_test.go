package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cf, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	require.Equal(t, "8080", cf.ServerPort)
	require.Equal(t, "storefront", cf.ServiceName)
	require.Equal(t, 10*time.Second, cf.ShutdownTimeout)
	require.Equal(t, "cart", cf.LocalCartKey)
	require.Equal(t, "storefront.orders", cf.KafkaOrderTopic)
	require.Equal(t, 3*time.Second, cf.PublishTimeout)

	rate, err := cf.TaxRateDecimal()
	require.NoError(t, err)
	require.True(t, rate.Equal(decimal.RequireFromString("0.0743")))
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "SERVER_PORT=9090\nTAX_RATE=0.05\nREDIS_DB=3\nSHUTDOWN_TIMEOUT=3s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cf, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "9090", cf.ServerPort)
	require.Equal(t, "0.05", cf.TaxRate)
	require.Equal(t, 3, cf.RedisDB)
	require.Equal(t, 3*time.Second, cf.ShutdownTimeout)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SERVER_PORT=9090\n"), 0o644))
	t.Setenv("SERVER_PORT", "7070")

	cf, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "7070", cf.ServerPort)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		modify  func(cf *Config)
		wantErr bool
	}{
		{name: "valid", modify: func(cf *Config) {}},
		{name: "tax rate not a number", modify: func(cf *Config) { cf.TaxRate = "abc" }, wantErr: true},
		{name: "negative tax rate", modify: func(cf *Config) { cf.TaxRate = "-0.1" }, wantErr: true},
		{name: "zero rate limit", modify: func(cf *Config) { cf.RateLimitRate = 0 }, wantErr: true},
		{name: "missing port", modify: func(cf *Config) { cf.ServerPort = "" }, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cf := &Config{
				ServerPort:        "8080",
				TaxRate:           "0.0743",
				RateLimitCapacity: 10,
				RateLimitRate:     5,
			}
			tc.modify(cf)
			err := cf.Validate()
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
