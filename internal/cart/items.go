package cart

import (
	"github.com/RoyceAzure/lab/storefront/internal/domain/errs"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
)

// itemList 依照商品ID索引的有序集合
// 每次修改都從快照建立新的 itemList, 原本的快照不會被改動
type itemList struct {
	items []model.LineItem
	index map[string]int
}

// newItemList 複製快照, 重複的商品ID合併數量
func newItemList(items []model.LineItem) *itemList {
	merged := model.MergeItems(items)
	l := &itemList{
		items: merged,
		index: make(map[string]int, len(merged)),
	}
	for i, item := range merged {
		l.index[item.ID] = i
	}
	return l
}

func (l *itemList) add(item model.LineItem) {
	if i, ok := l.index[item.ID]; ok {
		l.items[i].Quantity += item.Quantity
		return
	}
	l.index[item.ID] = len(l.items)
	l.items = append(l.items, item.Clone())
}

func (l *itemList) setQuantity(itemID string, qty int) error {
	if qty <= 0 {
		l.remove(itemID)
		return nil
	}
	i, ok := l.index[itemID]
	if !ok {
		return errs.NotFoundf("cart item %s", itemID)
	}
	l.items[i].Quantity = qty
	return nil
}

func (l *itemList) remove(itemID string) {
	i, ok := l.index[itemID]
	if !ok {
		return
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	delete(l.index, itemID)
	for j := i; j < len(l.items); j++ {
		l.index[l.items[j].ID] = j
	}
}

func (l *itemList) clear() {
	l.items = []model.LineItem{}
	l.index = map[string]int{}
}

func (l *itemList) snapshot() []model.LineItem {
	return model.CloneItems(l.items)
}

// mutation 套用在 itemList 上的修改
type mutation func(l *itemList) error

func addMutation(item model.LineItem) mutation {
	return func(l *itemList) error {
		l.add(item)
		return nil
	}
}

func setQuantityMutation(itemID string, qty int) mutation {
	return func(l *itemList) error {
		return l.setQuantity(itemID, qty)
	}
}

func removeMutation(itemID string) mutation {
	return func(l *itemList) error {
		l.remove(itemID)
		return nil
	}
}

func clearMutation() mutation {
	return func(l *itemList) error {
		l.clear()
		return nil
	}
}

// apply 在快照的副本上套用修改, 失敗時回傳原本的快照
func apply(cart model.Cart, m mutation) (model.Cart, error) {
	l := newItemList(cart.Items)
	if err := m(l); err != nil {
		return cart, err
	}
	next := cart.Clone()
	next.Items = l.snapshot()
	return next, nil
}
