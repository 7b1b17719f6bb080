package dto

import (
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
)

type CreateOrderDTO struct {
	UserID  string             `json:"user_id"`
	Items   []model.LineItem   `json:"items"`
	Request model.OrderRequest `json:"request"`
}

type UpdateOrderStatusDTO struct {
	Status string `json:"status"`
}

type CheckoutDTO struct {
	Request model.OrderRequest `json:"request"`
}

// OrderDTO 金額固定兩位小數字串, 避免前端浮點誤差
type OrderDTO struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Items     []model.LineItem   `json:"items"`
	Request   model.OrderRequest `json:"request"`
	Subtotal  string             `json:"subtotal"`
	Tax       string             `json:"tax"`
	Shipping  string             `json:"shipping"`
	Total     string             `json:"total"`
	Status    string             `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// CheckoutResponse 訂單已建立但清空購物車失敗時帶 warning
type CheckoutResponse struct {
	Order   OrderDTO `json:"order"`
	Warning string   `json:"warning,omitempty"`
}

func ConvertOrderToDTO(order *model.Order) OrderDTO {
	return OrderDTO{
		ID:        order.ID,
		UserID:    order.UserID,
		Items:     order.LineItems(),
		Request:   order.Request,
		Subtotal:  order.Subtotal.StringFixed(2),
		Tax:       order.Tax.StringFixed(2),
		Shipping:  order.Shipping.StringFixed(2),
		Total:     order.Total.StringFixed(2),
		Status:    string(order.Status),
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
}

func ConvertOrdersToDTO(orders []model.Order) []OrderDTO {
	res := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		res = append(res, ConvertOrderToDTO(&orders[i]))
	}
	return res
}
