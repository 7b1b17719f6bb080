package cart

import (
	"context"
	"errors"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
)

// ErrStoreClosed store 已經 Close, 之後的修改不會寫入任何資料
var ErrStoreClosed = errors.New("cart store is closed")

// Store 購物車容器
// 匿名訪客使用 LocalCartStore, 登入使用者使用 RemoteCartStore
// 修改都是樂觀更新: 先更新可觀察的狀態, 再寫入儲存
type Store interface {
	Items() []model.LineItem
	Cart() model.Cart
	Subtotal() decimal.Decimal

	// Add 相同商品ID合併數量, 否則加到最後
	Add(ctx context.Context, item model.LineItem) error
	// SetQuantity qty <= 0 等同 Remove, 商品不存在回傳 ErrNotFound
	SetQuantity(ctx context.Context, itemID string, qty int) error
	// Remove 商品不存在時不做任何事
	Remove(ctx context.Context, itemID string) error
	Clear(ctx context.Context) error

	// Watch 訂閱購物車快照, 只保留最新一筆; 呼叫回傳的 func 取消訂閱
	Watch() (<-chan model.Cart, func())
	Close() error
}

// LocalStorage 同步 key-value 儲存, 只在匿名模式使用
type LocalStorage interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// DocumentRepository 遠端購物車文件, 一個 user 只對應一份
type DocumentRepository interface {
	// GetCart 文件不存在回傳 errs.ErrNotFound
	GetCart(ctx context.Context, userID string) (model.Cart, error)
	// SaveCart 整份覆寫並通知訂閱者
	SaveCart(ctx context.Context, cart model.Cart) error
	// WatchCart 訂閱文件變更, ctx 結束時 channel 關閉
	WatchCart(ctx context.Context, userID string) (<-chan model.Cart, error)
}
