package model

import (
	"github.com/shopspring/decimal"
)

// LineItem 購物車 / 訂單中的單一商品
// Quantity 永遠 >= 1, 減到 0 以下必須移除
type LineItem struct {
	ID             string          `json:"id" validate:"required"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price" validate:"gte=0"`
	Quantity       int             `json:"quantity" validate:"gte=1"`
	Image          string          `json:"image,omitempty"`
	Customizations map[string]any  `json:"customizations,omitempty"`
}

// LineTotal price * quantity
func (l LineItem) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Clone 深拷貝 customizations, 避免快照之間共用 map
func (l LineItem) Clone() LineItem {
	cp := l
	if l.Customizations != nil {
		cp.Customizations = make(map[string]any, len(l.Customizations))
		for k, v := range l.Customizations {
			cp.Customizations[k] = v
		}
	}
	return cp
}

// Subtotal 所有商品 price * quantity 的總和
func Subtotal(items []LineItem) decimal.Decimal {
	amount := decimal.Zero
	for _, item := range items {
		amount = amount.Add(item.LineTotal())
	}
	return amount
}

func CloneItems(items []LineItem) []LineItem {
	if items == nil {
		return []LineItem{}
	}
	cp := make([]LineItem, len(items))
	for i, item := range items {
		cp[i] = item.Clone()
	}
	return cp
}

// MergeItems 相同商品ID合併數量, 保留第一次出現的位置
func MergeItems(items []LineItem) []LineItem {
	merged := make([]LineItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		if i, ok := index[item.ID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ID] = len(merged)
		merged = append(merged, item.Clone())
	}
	return merged
}
