package router

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	m "github.com/RoyceAzure/lab/storefront/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

type RouterConfig struct {
	AllowedOrigins    []string
	RateLimitCapacity int64
	RateLimitRate     int64
}

func SetupRouter(server *api.Server, cf RouterConfig, logger *zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// 全局中間件
	r.Use(m.RequestIdMiddleware)
	r.Use(middleware.RealIP)
	r.Use(m.LoggerMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cf.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if cf.RateLimitCapacity > 0 && cf.RateLimitRate > 0 {
		r.Use(m.NewRateLimitMiddleware(m.NewTokenBucket(cf.RateLimitCapacity, cf.RateLimitRate)))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// API 路由
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/tax-rate", server.TaxHandler.GetTaxRate)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", server.OrderHandler.CreateOrder)
			r.Get("/{orderID}", server.OrderHandler.GetOrder)
		})

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/orders", server.OrderHandler.ListUserOrders)
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", server.CartHandler.GetCart)
				r.Put("/", server.CartHandler.ReplaceCart)
				r.Post("/checkout", server.CartHandler.Checkout)
				r.Get("/live", server.CartHandler.Live)
			})
		})

		//管理者路由, 驗證由 gateway 處理
		r.Route("/admin", func(r chi.Router) {
			r.Get("/orders", server.OrderHandler.ListAllOrders)
			r.Patch("/orders/{orderID}/status", server.OrderHandler.UpdateOrderStatus)
		})
	})

	if logger != nil {
		_ = chi.Walk(r, func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			logger.Debug().Str("method", method).Str("route", route).Msg("route registered")
			return nil
		})
	}
	return r
}
