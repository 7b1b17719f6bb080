package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCart 購物車沒有商品時建立訂單
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNotFound 訂單或購物車文件不存在
	ErrNotFound = errors.New("not found")
	// ErrValidation 輸入資料格式錯誤 (負價格, 數量 < 1 ...)
	ErrValidation = errors.New("validation failed")
)

// RemoteIOError 代表與文件儲存 / 身分服務 / broker 溝通失敗
// 不做自動重試，由呼叫端決定
type RemoteIOError struct {
	Op  string
	Err error
}

func (e *RemoteIOError) Error() string {
	return fmt.Sprintf("remote io %s failed: %v", e.Op, e.Err)
}

func (e *RemoteIOError) Unwrap() error {
	return e.Err
}

// NewRemoteIOError 包裝 infra 錯誤, err 為 nil 時回傳 nil
// err 已經是 RemoteIOError 時不重複包裝
func NewRemoteIOError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsRemoteIO(err) {
		return err
	}
	return &RemoteIOError{Op: op, Err: err}
}

// IsRemoteIO 判斷錯誤鏈中是否有 RemoteIOError
func IsRemoteIO(err error) bool {
	var remoteErr *RemoteIOError
	return errors.As(err, &remoteErr)
}

// NotFoundf 產生可被 errors.Is(err, ErrNotFound) 判斷的錯誤
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Validationf 產生可被 errors.Is(err, ErrValidation) 判斷的錯誤
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
