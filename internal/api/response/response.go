package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/domain/errs"
)

type ResponseError struct {
	Error string `json:"error"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func SuccessJSON(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

func ErrorJSON(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ResponseError{Error: msg})
}

/*
StatusCode domain 錯誤對應的 http status
EmptyCart / Validation: 400
NotFound: 404
RemoteIO: 502
其他: 500
*/
func StatusCode(err error) int {
	switch {
	case errors.Is(err, errs.ErrEmptyCart), errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errs.IsRemoteIO(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error 依照錯誤種類回傳, 500 不把內部錯誤訊息回給前端
func Error(w http.ResponseWriter, err error) {
	status := StatusCode(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(http.StatusInternalServerError)
	}
	ErrorJSON(w, status, msg)
}
