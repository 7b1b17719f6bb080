package db

import (
	"context"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/errs"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"gorm.io/gorm"
)

// IOrderRepository Order 相關操作介面
// 失敗時回傳 errs.ErrNotFound 或 *errs.RemoteIOError
type IOrderRepository interface {
	CreateOrder(ctx context.Context, order *model.Order) error
	GetOrderByID(ctx context.Context, id string) (*model.Order, error)
	GetOrdersByUserID(ctx context.Context, userID string) ([]model.Order, error)
	GetAllOrders(ctx context.Context) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus, updatedAt time.Time) error
}

// 訂單寫入一次, 之後只更新 status
type OrderRepo struct {
	db *DbDao
}

func NewOrderRepo(db *DbDao) *OrderRepo {
	return &OrderRepo{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// Create - 創建訂單, 訂單與商品在同一個transaction內寫入
func (s *OrderRepo) CreateOrder(ctx context.Context, order *model.Order) error {
	err := s.db.WithContext(ctx).Create(order).Error
	return errs.NewRemoteIOError("create order", err)
}

// Read - 根據ID查詢訂單
func (s *OrderRepo) GetOrderByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Preload("Items", preloadItems).
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFoundf("order %s", id)
	}
	if err != nil {
		return nil, errs.NewRemoteIOError("get order", err)
	}
	return &order, nil
}

// Read - 根據用戶ID查詢訂單, 新的在前
func (s *OrderRepo) GetOrdersByUserID(ctx context.Context, userID string) ([]model.Order, error) {
	orders := []model.Order{}
	err := s.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, errs.NewRemoteIOError("list user orders", err)
	}
	return orders, nil
}

// Read - 查詢所有訂單 (管理後台), 新的在前
func (s *OrderRepo) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	orders := []model.Order{}
	err := s.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Order("created_at DESC").
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, errs.NewRemoteIOError("list orders", err)
	}
	return orders, nil
}

// Update - 更新訂單狀態, 同時更新 updated_at
// 不檢查狀態轉換, 同時更新時 last-write-wins
func (s *OrderRepo) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus, updatedAt time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": updatedAt,
		})
	if result.Error != nil {
		return errs.NewRemoteIOError("update order status", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NotFoundf("order %s", id)
	}
	return nil
}

var _ IOrderRepository = (*OrderRepo)(nil)
