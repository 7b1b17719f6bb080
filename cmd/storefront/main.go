package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/api/handler"
	"github.com/RoyceAzure/lab/storefront/internal/api/router"
	"github.com/RoyceAzure/lab/storefront/internal/appcontext"
	"github.com/RoyceAzure/lab/storefront/internal/config"
	"github.com/RoyceAzure/lab/storefront/internal/logger"
	"golang.org/x/sync/errgroup"
)

func main() {
	cf := config.GetConfig()
	l, err := logger.NewLogger(cf.ServiceName, cf.LogLevel, os.Stdout)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	// 設置訊號監聽
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := appcontext.NewApplicationContext(ctx, cf, l)
	if err != nil {
		l.Fatal().Err(err).Msg("init application context failed")
	}

	// 初始化 handler
	server := api.NewServer(
		handler.NewTaxHandler(app.TaxProvider),
		handler.NewOrderHandler(app.OrderService),
		handler.NewCartHandler(app.CartDocRepo, app.CheckoutService, cf.CorsAllowedOrigins),
	)

	// 設置路由
	r := router.SetupRouter(server, router.RouterConfig{
		AllowedOrigins:    cf.CorsAllowedOrigins,
		RateLimitCapacity: cf.RateLimitCapacity,
		RateLimitRate:     cf.RateLimitRate,
	}, l)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cf.ServerPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.Info().Str("addr", srv.Addr).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		l.Info().Msg("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cf.ShutdownTimeout)
		defer cancel()

		var errList []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errList = append(errList, fmt.Errorf("server shutdown: %w", err))
		}
		if err := app.Shutdown(shutdownCtx); err != nil {
			errList = append(errList, fmt.Errorf("application shutdown: %w", err))
		}
		return errors.Join(errList...)
	})

	if err := g.Wait(); err != nil {
		l.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	l.Info().Msg("closed completed")
}
