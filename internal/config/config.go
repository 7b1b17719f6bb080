package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

/*
設定只在啟動時讀取一次, 不支援 hot reload
稅率在整個 process 生命週期內固定
*/
var config_siongleton *Config
var muonce sync.Once

const DefaultConfigFile = ".env"

type Config struct {
	ServiceName        string        `mapstructure:"SERVICE_NAME"`
	ServerPort         string        `mapstructure:"SERVER_PORT"`
	ShutdownTimeout    time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	DbName             string        `mapstructure:"POSTGRES_DB"`
	DbHost             string        `mapstructure:"POSTGRES_HOST"`
	DbPort             string        `mapstructure:"POSTGRES_PORT"`
	DbUser             string        `mapstructure:"POSTGRES_USER"`
	DbPas              string        `mapstructure:"POSTGRES_PASSWORD"`
	RedisAddr          string        `mapstructure:"REDIS_ADDR"`
	RedisPassword      string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int           `mapstructure:"REDIS_DB"`
	KafkaBrokers       []string      `mapstructure:"KAFKA_BROKERS"`
	KafkaOrderTopic    string        `mapstructure:"KAFKA_ORDER_TOPIC"`
	PublishTimeout     time.Duration `mapstructure:"KAFKA_PUBLISH_TIMEOUT"`
	TaxRate            string        `mapstructure:"TAX_RATE"`
	TaxDescription     string        `mapstructure:"TAX_DESCRIPTION"`
	LocalStorageDir    string        `mapstructure:"LOCAL_STORAGE_DIR"`
	LocalCartKey       string        `mapstructure:"LOCAL_CART_KEY"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	RateLimitCapacity  int64         `mapstructure:"RATE_LIMIT_CAPACITY"`
	RateLimitRate      int64         `mapstructure:"RATE_LIMIT_RATE"`
	CorsAllowedOrigins []string      `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "storefront")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("POSTGRES_DB", "storefront")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_BROKERS", []string{"localhost:9092"})
	v.SetDefault("KAFKA_ORDER_TOPIC", constants.DefaultOrderTopic)
	v.SetDefault("KAFKA_PUBLISH_TIMEOUT", "3s")
	v.SetDefault("TAX_RATE", "0.0743")
	v.SetDefault("TAX_DESCRIPTION", "Sales tax")
	v.SetDefault("LOCAL_STORAGE_DIR", "./data")
	v.SetDefault("LOCAL_CART_KEY", "cart")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RATE_LIMIT_CAPACITY", 100)
	v.SetDefault("RATE_LIMIT_RATE", 50)
	v.SetDefault("CORS_ALLOWED_ORIGINS", []string{"*"})
}

// GetConfig 讀取 .env 與環境變數, 只讀一次
func GetConfig() *Config {
	muonce.Do(func() {
		cf, err := LoadConfig(DefaultConfigFile)
		if err != nil {
			log.Fatalf("error read config: %v", err)
		}
		config_siongleton = cf
	})
	return config_siongleton
}

/*
LoadConfig 單純回傳錯誤, 由外部決定要不要Fatal
設定檔不存在時只使用預設值與環境變數
環境變數優先於設定檔
*/
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	cf := &Config{}
	if err := v.Unmarshal(cf); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cf.Validate(); err != nil {
		return nil, err
	}
	return cf, nil
}

func (c *Config) Validate() error {
	rate, err := c.TaxRateDecimal()
	if err != nil {
		return err
	}
	if rate.IsNegative() {
		return fmt.Errorf("TAX_RATE must not be negative, got %s", c.TaxRate)
	}
	if c.RateLimitCapacity <= 0 || c.RateLimitRate <= 0 {
		return fmt.Errorf("RATE_LIMIT_CAPACITY and RATE_LIMIT_RATE must be positive")
	}
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}
	return nil
}

func (c *Config) TaxRateDecimal() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid TAX_RATE %q: %w", c.TaxRate, err)
	}
	return rate, nil
}
