package dto

type TaxRateDTO struct {
	Rate        float64 `json:"rate"`        //小數, 0.0743 代表 7.43%
	Description string  `json:"description"` //顯示用說明
}
