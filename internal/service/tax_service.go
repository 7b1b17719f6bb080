package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const DefaultTaxDescription = "Sales tax"

// DefaultTaxRate 7.43%
var DefaultTaxRate = decimal.RequireFromString("0.0743")

type ITaxRateProvider interface {
	Rate() decimal.Decimal
	Description() string
	ComputeTax(subtotal decimal.Decimal) decimal.Decimal
}

// TaxRateProvider 固定稅率, 啟動時由設定檔決定, 執行期間不會變動
type TaxRateProvider struct {
	rate        decimal.Decimal
	description string
}

func NewTaxRateProvider(rate decimal.Decimal, description string) (*TaxRateProvider, error) {
	if rate.IsNegative() {
		return nil, fmt.Errorf("tax rate must not be negative, got %s", rate)
	}
	if description == "" {
		description = DefaultTaxDescription
	}
	return &TaxRateProvider{rate: rate, description: description}, nil
}

func NewDefaultTaxRateProvider() *TaxRateProvider {
	return &TaxRateProvider{rate: DefaultTaxRate, description: DefaultTaxDescription}
}

func (t *TaxRateProvider) Rate() decimal.Decimal {
	return t.rate
}

func (t *TaxRateProvider) Description() string {
	return t.description
}

// ComputeTax round(subtotal * rate, 2), 四捨五入
// subtotal 不可為負由呼叫端保證
func (t *TaxRateProvider) ComputeTax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(t.rate).Round(2)
}

var _ ITaxRateProvider = (*TaxRateProvider)(nil)
