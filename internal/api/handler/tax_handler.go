package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/api/response"
	"github.com/RoyceAzure/lab/storefront/internal/service"
)

type TaxHandler struct {
	taxProvider service.ITaxRateProvider
}

func NewTaxHandler(taxProvider service.ITaxRateProvider) *TaxHandler {
	if taxProvider == nil {
		panic("taxProvider cannot be nil")
	}
	return &TaxHandler{taxProvider: taxProvider}
}

// GetTaxRate 前端顯示用的稅率
func (h *TaxHandler) GetTaxRate(w http.ResponseWriter, r *http.Request) {
	response.SuccessJSON(w, dto.TaxRateDTO{
		Rate:        h.taxProvider.Rate().InexactFloat64(),
		Description: h.taxProvider.Description(),
	})
}
