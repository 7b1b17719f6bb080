package constants

type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
)

// RequestIDHeader 前端可自帶 request id, 沒有時由 server 產生
const RequestIDHeader = "X-Request-ID"

const (
	// 訂單事件的 kafka topic 預設值, 實際值由設定檔決定
	DefaultOrderTopic = "storefront.orders"
)

type ENV string

const (
	Dev  ENV = "development"
	Prod ENV = "production"
)
