package dto

import (
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
)

type UpdateCartDTO struct {
	Items []model.LineItem `json:"items"`
}

type CartDTO struct {
	UserID    string           `json:"user_id"`
	Items     []model.LineItem `json:"items"`
	Subtotal  string           `json:"subtotal"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func ConvertCartToDTO(cart model.Cart) CartDTO {
	return CartDTO{
		UserID:    cart.UserID,
		Items:     model.CloneItems(cart.Items),
		Subtotal:  cart.Subtotal().StringFixed(2),
		UpdatedAt: cart.UpdatedAt,
	}
}
