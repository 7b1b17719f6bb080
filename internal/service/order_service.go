package service

import (
	"context"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/errs"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/rs/zerolog"
)

//go:generate mockgen -source=order_service.go -destination=mock/mock_order_service.go -package=mock_service

type IOrderService interface {
	CreateOrder(ctx context.Context, userID string, items []model.LineItem, req model.OrderRequest) (*model.Order, error)
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	ListOrders(ctx context.Context, userID string) ([]model.Order, error)
	ListAllOrders(ctx context.Context) ([]model.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error)
}

// DefaultPublishTimeout 事件發佈的上限, kafka writer 的重試不會拖住 request
const DefaultPublishTimeout = 3 * time.Second

type OrderServiceOption func(*OrderService)

// WithClock 測試時固定時間
func WithClock(now func() time.Time) OrderServiceOption {
	return func(o *OrderService) {
		o.now = now
	}
}

// WithEventProducer 訂單建立 / 狀態變更後發佈事件
func WithEventProducer(p producer.IOrderEventProducer) OrderServiceOption {
	return func(o *OrderService) {
		o.eventProducer = p
	}
}

// WithPublishTimeout <= 0 時使用 DefaultPublishTimeout
func WithPublishTimeout(d time.Duration) OrderServiceOption {
	return func(o *OrderService) {
		if d > 0 {
			o.publishTimeout = d
		}
	}
}

type OrderService struct {
	orderRepo      db.IOrderRepository
	calculator     *OrderCalculator
	eventProducer  producer.IOrderEventProducer
	publishTimeout time.Duration
	now            func() time.Time
	logger         *zerolog.Logger
}

// 訂單金額只在建立時計算一次, 之後只有 status 會變動
func NewOrderService(orderRepo db.IOrderRepository, calculator *OrderCalculator, logger *zerolog.Logger, opts ...OrderServiceOption) *OrderService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	o := &OrderService{
		orderRepo:      orderRepo,
		calculator:     calculator,
		publishTimeout: DefaultPublishTimeout,
		now:            time.Now,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

/*
建立訂單
items 為空回傳 ErrEmptyCart, 不寫入任何資料
不會清空購物車, 由呼叫端在成功後自行清空
*/
func (o *OrderService) CreateOrder(ctx context.Context, userID string, items []model.LineItem, req model.OrderRequest) (*model.Order, error) {
	if len(items) == 0 {
		return nil, errs.ErrEmptyCart
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errs.Validationf("user id is required")
	}
	if err := model.ValidateLineItems(items); err != nil {
		return nil, err
	}
	if err := model.ValidateOrderRequest(req); err != nil {
		return nil, err
	}

	items = model.MergeItems(items)
	totals := o.calculator.ComputeTotals(items)
	now := o.now().UTC()

	order := &model.Order{
		UserID:    userID,
		Items:     model.NewOrderItems(items),
		Request:   req,
		Subtotal:  totals.Subtotal,
		Tax:       totals.Tax,
		Shipping:  totals.Shipping,
		Total:     totals.Total,
		Status:    model.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.orderRepo.CreateOrder(ctx, order); err != nil {
		o.logger.Error().Err(err).Str("user_id", userID).Msg("create order failed")
		return nil, err
	}

	o.logger.Info().
		Str("order_id", order.ID).
		Str("user_id", userID).
		Str("total", order.Total.StringFixed(2)).
		Msg("order created")

	if o.eventProducer != nil {
		pubCtx, cancel := o.publishContext(ctx)
		defer cancel()
		if err := o.eventProducer.PublishOrderCreated(pubCtx, order); err != nil {
			// 訂單已寫入, 事件失敗只記錄
			o.logger.Warn().Err(err).Str("order_id", order.ID).Msg("publish order created event failed")
		}
	}
	return order, nil
}

func (o *OrderService) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, errs.Validationf("order id is required")
	}
	return o.orderRepo.GetOrderByID(ctx, orderID)
}

// ListOrders 依建立時間新到舊, 沒有訂單回傳空集合
func (o *OrderService) ListOrders(ctx context.Context, userID string) ([]model.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errs.Validationf("user id is required")
	}
	return o.orderRepo.GetOrdersByUserID(ctx, userID)
}

func (o *OrderService) ListAllOrders(ctx context.Context) ([]model.Order, error) {
	return o.orderRepo.GetAllOrders(ctx)
}

/*
更新訂單狀態
任何狀態都可以改成任何狀態 (管理者覆寫), 只檢查是否在列舉內
*/
func (o *OrderService) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error) {
	if !status.IsValid() {
		return nil, errs.Validationf("invalid order status %q", status)
	}

	current, err := o.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	from := current.Status

	if err := o.orderRepo.UpdateOrderStatus(ctx, orderID, status, o.now().UTC()); err != nil {
		o.logger.Error().Err(err).Str("order_id", orderID).Msg("update order status failed")
		return nil, err
	}

	updated, err := o.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	o.logger.Info().
		Str("order_id", orderID).
		Str("from", string(from)).
		Str("to", string(status)).
		Msg("order status updated")

	if o.eventProducer != nil {
		pubCtx, cancel := o.publishContext(ctx)
		defer cancel()
		if err := o.eventProducer.PublishOrderStatusChanged(pubCtx, updated, from); err != nil {
			o.logger.Warn().Err(err).Str("order_id", orderID).Msg("publish order status changed event failed")
		}
	}
	return updated, nil
}

// publishContext 訂單已經寫入, 事件發佈不跟著 request 取消, 但最多等 publishTimeout
func (o *OrderService) publishContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), o.publishTimeout)
}

var _ IOrderService = (*OrderService)(nil)
