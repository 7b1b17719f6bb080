package service

import (
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
)

var (
	// 小計超過門檻免運
	FreeShippingThreshold = decimal.NewFromInt(100)
	FlatShippingRate      = decimal.NewFromInt(10)
)

// OrderCalculator 訂單金額唯一的計算來源, 每次建立訂單只呼叫一次並凍結結果
type OrderCalculator struct {
	tax ITaxRateProvider
}

func NewOrderCalculator(tax ITaxRateProvider) *OrderCalculator {
	return &OrderCalculator{tax: tax}
}

// ComputeTotals 純函式, 無 I/O
func (c *OrderCalculator) ComputeTotals(items []model.LineItem) model.Totals {
	subtotal := model.Subtotal(items)
	tax := c.tax.ComputeTax(subtotal)
	shipping := ShippingFor(subtotal)
	return model.Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}

// ShippingFor 小計 > 100 免運, 否則固定 10 (剛好 100 也要收運費)
func ShippingFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FlatShippingRate
}
