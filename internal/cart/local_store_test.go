package cart

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/RoyceAzure/lab/storefront/internal/domain/errs"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newItem(id string, price string, qty int) model.LineItem {
	return model.LineItem{
		ID:       id,
		Name:     "Item " + id,
		Price:    decimal.RequireFromString(price),
		Quantity: qty,
	}
}

func requireSameItems(t *testing.T, expected, actual []model.LineItem) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i := range expected {
		require.Equal(t, expected[i].ID, actual[i].ID)
		require.Equal(t, expected[i].Quantity, actual[i].Quantity)
		require.True(t, expected[i].Price.Equal(actual[i].Price))
	}
}

func TestLocalCartStore_AddMerges(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage()
	store, err := NewLocalCartStore(storage, "", nil)
	require.NoError(t, err)
	require.Empty(t, store.Items())

	require.NoError(t, store.Add(ctx, newItem("a", "2.50", 2)))
	require.NoError(t, store.Add(ctx, newItem("b", "1.00", 1)))
	require.NoError(t, store.Add(ctx, newItem("a", "2.50", 3)))

	items := store.Items()
	require.Len(t, items, 2)
	require.Equal(t, "a", items[0].ID)
	require.Equal(t, 5, items[0].Quantity)
	require.Equal(t, "b", items[1].ID)
	require.True(t, decimal.RequireFromString("13.50").Equal(store.Subtotal()))

	// 每次修改都寫入整份購物車
	require.Equal(t, 3, storage.writeCount())
	data, ok, err := storage.Get(DefaultLocalCartKey)
	require.NoError(t, err)
	require.True(t, ok)
	var persisted model.Cart
	require.NoError(t, json.Unmarshal(data, &persisted))
	require.Len(t, persisted.Items, 2)

	// 重新載入得到相同內容
	reloaded, err := NewLocalCartStore(storage, "", nil)
	require.NoError(t, err)
	requireSameItems(t, store.Items(), reloaded.Items())
}

func TestLocalCartStore_SetQuantityAndRemove(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalCartStore(newMemStorage(), "", nil)
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, newItem("a", "1.00", 1)))
	require.NoError(t, store.Add(ctx, newItem("b", "1.00", 1)))

	require.NoError(t, store.SetQuantity(ctx, "a", 4))
	require.Equal(t, 4, store.Items()[0].Quantity)

	// 數量設為 0 等同移除
	require.NoError(t, store.SetQuantity(ctx, "a", 0))
	require.Len(t, store.Items(), 1)
	require.Equal(t, "b", store.Items()[0].ID)

	err = store.SetQuantity(ctx, "missing", 2)
	require.ErrorIs(t, err, errs.ErrNotFound)

	// 不存在的商品移除不做任何事
	require.NoError(t, store.Remove(ctx, "missing"))
	require.NoError(t, store.SetQuantity(ctx, "missing", -1))

	require.NoError(t, store.Remove(ctx, "b"))
	require.Empty(t, store.Items())

	require.NoError(t, store.Add(ctx, newItem("c", "1.00", 1)))
	require.NoError(t, store.Clear(ctx))
	require.Empty(t, store.Items())
	require.True(t, decimal.Zero.Equal(store.Subtotal()))
}

func TestLocalCartStore_Validation(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage()
	store, err := NewLocalCartStore(storage, "", nil)
	require.NoError(t, err)

	require.ErrorIs(t, store.Add(ctx, newItem("a", "-1.00", 1)), errs.ErrValidation)
	require.ErrorIs(t, store.Add(ctx, newItem("a", "1.00", 0)), errs.ErrValidation)
	require.ErrorIs(t, store.Add(ctx, newItem("", "1.00", 1)), errs.ErrValidation)
	require.Empty(t, store.Items())
	require.Equal(t, 0, storage.writeCount())
}

// 寫入失敗時保留原本的狀態
func TestLocalCartStore_PersistFailureReverts(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage()
	store, err := NewLocalCartStore(storage, "", nil)
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, newItem("a", "1.00", 1)))

	storage.setFail(true)
	err = store.Add(ctx, newItem("a", "1.00", 2))
	require.ErrorIs(t, err, errInjected)
	require.Equal(t, 1, store.Items()[0].Quantity)
}

func TestLocalCartStore_Close(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage()
	store, err := NewLocalCartStore(storage, "", nil)
	require.NoError(t, err)

	ch, _ := store.Watch()
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	require.ErrorIs(t, store.Add(ctx, newItem("a", "1.00", 1)), ErrStoreClosed)
	require.ErrorIs(t, store.Clear(ctx), ErrStoreClosed)
	require.Equal(t, 0, storage.writeCount())

	// 初始快照之後 channel 被關閉
	<-ch
	_, ok := <-ch
	require.False(t, ok)
}

func TestLocalCartStore_Watch(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalCartStore(newMemStorage(), "", nil)
	require.NoError(t, err)

	ch, unsubscribe := store.Watch()
	initial := <-ch
	require.Empty(t, initial.Items)

	// watcher 沒有讀取時只保留最新的快照
	require.NoError(t, store.Add(ctx, newItem("a", "1.00", 1)))
	require.NoError(t, store.Add(ctx, newItem("a", "1.00", 1)))
	latest := <-ch
	require.Len(t, latest.Items, 1)
	require.Equal(t, 2, latest.Items[0].Quantity)

	unsubscribe()
	unsubscribe()
	_, ok := <-ch
	require.False(t, ok)
}

func TestLocalCartStore_CorruptedData(t *testing.T) {
	storage := newMemStorage()
	require.NoError(t, storage.Set(DefaultLocalCartKey, []byte("{not json")))

	store, err := NewLocalCartStore(storage, "", nil)
	require.NoError(t, err)
	require.Empty(t, store.Items())
}

// local storage 可以被使用者改寫, 讀回時丟掉不合法的項目
func TestLocalCartStore_DropsInvalidStoredItems(t *testing.T) {
	storage := newMemStorage()
	data, err := json.Marshal(model.Cart{Items: []model.LineItem{
		newItem("a", "1.50", 2),
		newItem("zero", "3.00", 0),
		newItem("neg-qty", "3.00", -4),
		newItem("neg-price", "-3.00", 1),
		newItem("a", "1.50", 1),
	}})
	require.NoError(t, err)
	require.NoError(t, storage.Set(DefaultLocalCartKey, data))

	store, err := NewLocalCartStore(storage, "", nil)
	require.NoError(t, err)
	requireSameItems(t, []model.LineItem{newItem("a", "1.50", 3)}, store.Items())
	require.True(t, decimal.RequireFromString("4.50").Equal(store.Subtotal()))

	ch, unsubscribe := store.Watch()
	defer unsubscribe()
	requireSameItems(t, []model.LineItem{newItem("a", "1.50", 3)}, (<-ch).Items)
}
