package model

import (
	"strings"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/errs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"    // 已下單, 待處理
	OrderStatusProcessing OrderStatus = "processing" // 處理中
	OrderStatusShipped    OrderStatus = "shipped"    // 已出貨
	OrderStatusDelivered  OrderStatus = "delivered"  // 已送達
	OrderStatusCancelled  OrderStatus = "cancelled"  // 已取消
)

var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func OrderStatuses() []OrderStatus {
	return append([]OrderStatus(nil), orderStatuses...)
}

func (s OrderStatus) IsValid() bool {
	for _, status := range orderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ParseOrderStatus 不分大小寫, 不在列舉內回傳 ErrValidation
func ParseOrderStatus(status string) (OrderStatus, error) {
	s := OrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if !s.IsValid() {
		return "", errs.Validationf("invalid order status %q", status)
	}
	return s, nil
}

type PaymentMethod string

const (
	PaymentMethodCard           PaymentMethod = "card"
	PaymentMethodPaypal         PaymentMethod = "paypal"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// OrderRequest 顧客結帳時填寫的資料, 只隨訂單一起保存
type OrderRequest struct {
	FirstName     string        `json:"first_name" validate:"required"`
	LastName      string        `json:"last_name" validate:"required"`
	Email         string        `json:"email" validate:"required,email"`
	Phone         string        `json:"phone" validate:"required"`
	Address       string        `json:"address" validate:"required"`
	City          string        `json:"city" validate:"required"`
	State         string        `json:"state"`
	PostalCode    string        `json:"postal_code" validate:"required"`
	Country       string        `json:"country" validate:"required"`
	PaymentMethod PaymentMethod `json:"payment_method" validate:"required,oneof=card paypal cash_on_delivery"`
	CardHolder    string        `json:"card_holder,omitempty"`
	CardLast4     string        `json:"card_last4,omitempty" validate:"omitempty,len=4,numeric"`
}

// Totals 訂單建立當下凍結的金額
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// Order 訂單建立後只有 Status (與 UpdatedAt) 會變動
// 金額永遠不會依照商品目錄重新計算
type Order struct {
	ID        string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID    string          `gorm:"not null;index;type:varchar(128)" json:"user_id"`
	Items     []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Request   OrderRequest    `gorm:"embedded;embeddedPrefix:customer_" json:"request"`
	Subtotal  decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"subtotal"`
	Tax       decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"tax"`
	Shipping  decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"shipping"`
	Total     decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"total"`
	Status    OrderStatus     `gorm:"not null;type:varchar(20);default:'pending'" json:"status"`
	CreatedAt time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null" json:"updated_at"`
}

// BeforeCreate GORM hook, 由儲存端指派訂單ID
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
		o.Items[i].Position = i
	}
	return nil
}

func (o *Order) Totals() Totals {
	return Totals{
		Subtotal: o.Subtotal,
		Tax:      o.Tax,
		Shipping: o.Shipping,
		Total:    o.Total,
	}
}

// LineItems 還原凍結的商品快照
func (o *Order) LineItems() []LineItem {
	items := make([]LineItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, item.ToLineItem())
	}
	return items
}

// OrderItem 訂單中凍結的商品, 依照 Position 保持購物車順序
type OrderItem struct {
	OrderID        string          `gorm:"primaryKey;type:varchar(64)" json:"-"`
	Position       int             `gorm:"primaryKey;autoIncrement:false" json:"-"`
	ProductID      string          `gorm:"not null;type:varchar(255)" json:"id"`
	Name           string          `gorm:"type:varchar(255)" json:"name"`
	Price          decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"price"`
	Quantity       int             `gorm:"not null" json:"quantity"`
	Image          string          `json:"image,omitempty"`
	Customizations map[string]any  `gorm:"serializer:json" json:"customizations,omitempty"`
}

func NewOrderItems(items []LineItem) []OrderItem {
	orderItems := make([]OrderItem, 0, len(items))
	for i, item := range items {
		cp := item.Clone()
		orderItems = append(orderItems, OrderItem{
			Position:       i,
			ProductID:      cp.ID,
			Name:           cp.Name,
			Price:          cp.Price,
			Quantity:       cp.Quantity,
			Image:          cp.Image,
			Customizations: cp.Customizations,
		})
	}
	return orderItems
}

func (o OrderItem) ToLineItem() LineItem {
	return LineItem{
		ID:             o.ProductID,
		Name:           o.Name,
		Price:          o.Price,
		Quantity:       o.Quantity,
		Image:          o.Image,
		Customizations: o.Customizations,
	}.Clone()
}
