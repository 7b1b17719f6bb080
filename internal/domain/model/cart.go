package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart 購物車文件
// 匿名訪客 UserID 為空字串, 只存在本地儲存
// 登入使用者的購物車同步到遠端文件, 一個 user 只對應一份
// Writer / Seq 記錄最後寫入的 store 與該 store 的寫入序號, 用來辨識自己寫入的回音
type Cart struct {
	UserID    string     `json:"user_id,omitempty"`
	Items     []LineItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
	Writer    string     `json:"writer,omitempty"`
	Seq       uint64     `json:"seq,omitempty"`
}

func NewEmptyCart(userID string) Cart {
	return Cart{
		UserID: userID,
		Items:  []LineItem{},
	}
}

func (c Cart) Subtotal() decimal.Decimal {
	return Subtotal(c.Items)
}

func (c Cart) Clone() Cart {
	return Cart{
		UserID:    c.UserID,
		Items:     CloneItems(c.Items),
		UpdatedAt: c.UpdatedAt,
		Writer:    c.Writer,
		Seq:       c.Seq,
	}
}
