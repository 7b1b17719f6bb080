package handler

import (
	"encoding/json"
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api/response"
	"github.com/RoyceAzure/lab/storefront/internal/domain/errs"
	"github.com/rs/zerolog"
)

// writeError 記錄錯誤後依照錯誤種類回應
// logger 由 LoggerMiddleware 放進 request context
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := response.StatusCode(err)
	logger := zerolog.Ctx(r.Context())
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Int("status", status).Str("url", r.URL.String()).Msg("request failed")
	response.Error(w, err)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errs.Validationf("invalid request body: %v", err)
	}
	return nil
}
