package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/domain/errs"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	// decimal 轉成 float64 讓 gte / lte 之類的 tag 可以直接使用
	validate.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
}

// ValidateLineItem 邊界檢查: 商品ID必填, 價格不可為負且最多兩位小數, 數量 >= 1
func ValidateLineItem(item LineItem) error {
	if err := validate.Struct(item); err != nil {
		return toValidationError("line item", err)
	}
	if !item.Price.Equal(item.Price.Round(2)) {
		return errs.Validationf("line item %s: price %s has more than 2 decimal places", item.ID, item.Price)
	}
	for key, value := range item.Customizations {
		if !isScalar(value) {
			return errs.Validationf("line item %s: customization %q must be a scalar value", item.ID, key)
		}
	}
	return nil
}

func ValidateLineItems(items []LineItem) error {
	for _, item := range items {
		if err := ValidateLineItem(item); err != nil {
			return err
		}
	}
	return nil
}

// SanitizeItems 丟掉不合法的項目 (數量 < 1, 價格為負...) 後合併相同商品, 回傳丟掉的數量
// 用在從儲存讀回的購物車, 讀回的資料不經過 Add 的檢查
func SanitizeItems(items []LineItem) ([]LineItem, int) {
	valid := make([]LineItem, 0, len(items))
	for _, item := range items {
		if ValidateLineItem(item) != nil {
			continue
		}
		valid = append(valid, item)
	}
	return MergeItems(valid), len(items) - len(valid)
}

func ValidateOrderRequest(req OrderRequest) error {
	if err := validate.Struct(req); err != nil {
		return toValidationError("order request", err)
	}
	return nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

func toValidationError(subject string, err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errs.Validationf("%s: %v", subject, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return errs.Validationf("%s: %s", subject, strings.Join(msgs, ", "))
}
