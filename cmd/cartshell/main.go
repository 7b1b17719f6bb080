package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/RoyceAzure/lab/storefront/internal/cart"
	"github.com/RoyceAzure/lab/storefront/internal/cartshell"
	"github.com/RoyceAzure/lab/storefront/internal/config"
	"github.com/RoyceAzure/lab/storefront/internal/infra/redis_client"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/storefront/internal/infra/storage"
	"github.com/RoyceAzure/lab/storefront/internal/logger"
)

// 本地操作購物車, 匿名購物車存在 LOCAL_STORAGE_DIR, 登入後同步到 redis
func main() {
	cf := config.GetConfig()
	// log 寫到 stderr, stdout 留給指令輸出
	l, err := logger.NewLogger(cf.ServiceName+"-cartshell", cf.LogLevel, os.Stderr)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := redis_client.GetRedisClient(ctx, cf.RedisAddr,
		redis_client.WithPassword(cf.RedisPassword),
		redis_client.WithDB(cf.RedisDB),
	)
	if err != nil {
		l.Fatal().Err(err).Msg("connect redis failed")
	}
	defer redis_client.CloseAll()

	local, err := storage.NewOsLocalStorage(cf.LocalStorageDir)
	if err != nil {
		l.Fatal().Err(err).Msg("init local storage failed")
	}

	session := cart.NewSession(local, redis_repo.NewCartDocRepo(client, l), l, cart.WithLocalCartKey(cf.LocalCartKey))
	defer session.Close()

	if err := cartshell.NewShell(session, os.Stdout).Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		l.Error().Err(err).Msg("cart shell stopped with error")
	}
}
