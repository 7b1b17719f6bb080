package service

import (
	"context"
	"fmt"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/rs/zerolog"
)

// CheckoutCart 結帳只需要讀取商品與清空購物車
type CheckoutCart interface {
	Items() []model.LineItem
	Clear(ctx context.Context) error
}

type CheckoutService struct {
	orderService IOrderService
	logger       *zerolog.Logger
}

func NewCheckoutService(orderService IOrderService, logger *zerolog.Logger) *CheckoutService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &CheckoutService{orderService: orderService, logger: logger}
}

/*
結帳
1. 讀取購物車商品並建立訂單
2. 訂單建立成功後才清空購物車, 失敗時購物車保持原樣
清空失敗時訂單已經存在, 同時回傳訂單與錯誤
*/
func (c *CheckoutService) Checkout(ctx context.Context, cart CheckoutCart, userID string, req model.OrderRequest) (*model.Order, error) {
	order, err := c.orderService.CreateOrder(ctx, userID, cart.Items(), req)
	if err != nil {
		return nil, err
	}

	if err := cart.Clear(ctx); err != nil {
		c.logger.Error().Err(err).Str("order_id", order.ID).Msg("clear cart after checkout failed")
		return order, fmt.Errorf("order %s created but clear cart failed: %w", order.ID, err)
	}
	return order, nil
}
