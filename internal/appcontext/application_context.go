package appcontext

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/storefront/internal/cart"
	"github.com/RoyceAzure/lab/storefront/internal/config"
	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	"github.com/RoyceAzure/lab/storefront/internal/infra/redis_client"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/storefront/internal/infra/storage"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type ApplicationContext struct {
	Cf                 *config.Config
	Logger             *zerolog.Logger
	DbDao              *db.DbDao
	OrderRepo          db.IOrderRepository
	RedisClient        *redis.Client
	CartDocRepo        *redis_repo.CartDocRepo
	Producer           producer.Producer
	OrderEventProducer producer.IOrderEventProducer
	TaxProvider        service.ITaxRateProvider
	OrderCalculator    *service.OrderCalculator
	OrderService       service.IOrderService
	CheckoutService    *service.CheckoutService
	LocalStorage       *storage.LocalStorage
}

func NewApplicationContext(ctx context.Context, cf *config.Config, logger *zerolog.Logger) (*ApplicationContext, error) {
	if cf == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	app := ApplicationContext{
		Cf:     cf,
		Logger: logger,
	}
	if err := app.Init(ctx); err != nil {
		// 已經建立的連線要關閉
		_ = app.Shutdown(context.WithoutCancel(ctx))
		return nil, err
	}
	return &app, nil
}

func (app *ApplicationContext) Init(ctx context.Context) error {
	steps := []struct {
		name  string
		setUp func(ctx context.Context) error
	}{
		{name: "database connection", setUp: app.setUpDbConn},
		{name: "redis client", setUp: app.setUpRedis},
		{name: "kafka producer", setUp: app.setUpProducer},
		{name: "tax rate provider", setUp: app.setUpTaxProvider},
		{name: "order service", setUp: app.setUpOrderService},
		{name: "local storage", setUp: app.setUpLocalStorage},
	}
	for _, step := range steps {
		app.Logger.Info().Msgf("Start setup %s", step.name)
		if err := step.setUp(ctx); err != nil {
			app.Logger.Error().Err(err).Msgf("setup %s failed", step.name)
			return fmt.Errorf("setup %s: %w", step.name, err)
		}
		app.Logger.Info().Msgf("Finish setup %s", step.name)
	}
	return nil
}

func (app *ApplicationContext) setUpDbConn(ctx context.Context) error {
	conn, err := db.GetDbConn(app.Cf.DbName, app.Cf.DbHost, app.Cf.DbPort, app.Cf.DbUser, app.Cf.DbPas)
	if err != nil {
		return err
	}
	return app.setUpOrderRepo(db.NewDbDao(conn))
}

// setUpOrderRepo schema migration 是冪等的, 每次啟動都執行
func (app *ApplicationContext) setUpOrderRepo(dao *db.DbDao) error {
	app.DbDao = dao
	if err := dao.InitMigrate(); err != nil {
		return err
	}
	app.OrderRepo = db.NewOrderRepo(dao)
	return nil
}

func (app *ApplicationContext) setUpRedis(ctx context.Context) error {
	client, err := redis_client.GetRedisClient(ctx, app.Cf.RedisAddr,
		redis_client.WithPassword(app.Cf.RedisPassword),
		redis_client.WithDB(app.Cf.RedisDB),
	)
	if err != nil {
		return err
	}
	app.RedisClient = client
	app.CartDocRepo = redis_repo.NewCartDocRepo(client, app.Logger)
	return nil
}

// kafka writer 是 lazy 連線, 這裡不會確認 broker 是否可用
func (app *ApplicationContext) setUpProducer(ctx context.Context) error {
	cfg := producer.DefaultConfig()
	cfg.Brokers = app.Cf.KafkaBrokers
	cfg.Topic = app.Cf.KafkaOrderTopic

	p, err := producer.NewKafkaProducer(producer.NewKafkaWriter(cfg, app.Logger), *cfg, app.Logger)
	if err != nil {
		return err
	}
	app.Producer = p
	app.OrderEventProducer = producer.NewOrderEventProducer(p)
	return nil
}

// 稅率只在啟動時讀取一次
func (app *ApplicationContext) setUpTaxProvider(ctx context.Context) error {
	rate, err := app.Cf.TaxRateDecimal()
	if err != nil {
		return err
	}
	provider, err := service.NewTaxRateProvider(rate, app.Cf.TaxDescription)
	if err != nil {
		return err
	}
	app.TaxProvider = provider
	app.Logger.Info().Str("tax_rate", rate.String()).Msg("tax rate loaded")
	return nil
}

func (app *ApplicationContext) setUpOrderService(ctx context.Context) error {
	app.OrderCalculator = service.NewOrderCalculator(app.TaxProvider)
	app.OrderService = service.NewOrderService(app.OrderRepo, app.OrderCalculator, app.Logger,
		service.WithEventProducer(app.OrderEventProducer),
		service.WithPublishTimeout(app.Cf.PublishTimeout))
	app.CheckoutService = service.NewCheckoutService(app.OrderService, app.Logger)
	return nil
}

func (app *ApplicationContext) setUpLocalStorage(ctx context.Context) error {
	s, err := storage.NewOsLocalStorage(app.Cf.LocalStorageDir)
	if err != nil {
		return err
	}
	app.LocalStorage = s
	return nil
}

// NewCartSession 匿名使用 local storage, 登入後使用 redis 文件
func (app *ApplicationContext) NewCartSession() *cart.Session {
	return cart.NewSession(app.LocalStorage, app.CartDocRepo, app.Logger,
		cart.WithLocalCartKey(app.Cf.LocalCartKey))
}

/*
Shutdown 依序關閉 producer, redis, database
單一步驟失敗不中斷流程, 回傳所有錯誤
ctx 結束時不等待關閉完成
*/
func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	app.Logger.Info().Msg("Start application shutdown")

	done := make(chan error, 1)
	go func() {
		defer close(done)
		var errList []error

		if app.Producer != nil {
			app.Logger.Info().Msg("Closing kafka producer...")
			if err := app.Producer.Close(); err != nil {
				errList = append(errList, fmt.Errorf("close producer: %w", err))
			}
		}

		if app.RedisClient != nil {
			app.Logger.Info().Msg("Closing redis client...")
			if err := redis_client.CloseAll(); err != nil {
				errList = append(errList, fmt.Errorf("close redis: %w", err))
			}
		}

		if app.DbDao != nil {
			app.Logger.Info().Msg("Closing database connection...")
			if err := app.DbDao.Close(); err != nil {
				errList = append(errList, fmt.Errorf("close database: %w", err))
			}
		}

		app.Logger.Info().Msg("Application shutdown complete")
		done <- errors.Join(errList...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}
