package api

import "github.com/RoyceAzure/lab/storefront/internal/api/handler"

type Server struct {
	TaxHandler   *handler.TaxHandler
	OrderHandler *handler.OrderHandler
	CartHandler  *handler.CartHandler
}

func NewServer(
	taxHandler *handler.TaxHandler,
	orderHandler *handler.OrderHandler,
	cartHandler *handler.CartHandler,
) *Server {
	return &Server{
		TaxHandler:   taxHandler,
		OrderHandler: orderHandler,
		CartHandler:  cartHandler,
	}
}
