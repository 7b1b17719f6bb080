package cart

import (
	"sync"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
)

// hub 把購物車快照推送給所有 watcher
// 每個 watcher 的 buffer 只有 1, 慢的 watcher 只會拿到最新的快照
// last 是最後推送的快照, 新的 watcher 在同一把鎖內以它為起點, 不會漏掉註冊期間的推送
type hub struct {
	mu       sync.Mutex
	watchers map[int]chan model.Cart
	last     model.Cart
	nextID   int
	closed   bool
}

func newHub(initial model.Cart) *hub {
	return &hub{
		watchers: make(map[int]chan model.Cart),
		last:     initial.Clone(),
	}
}

// watch 註冊時先送出最後推送的快照
func (h *hub) watch() (<-chan model.Cart, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan model.Cart, 1)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	ch <- h.last.Clone()

	id := h.nextID
	h.nextID++
	h.watchers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if w, ok := h.watchers[id]; ok {
				delete(h.watchers, id)
				close(w)
			}
		})
	}
}

func (h *hub) publish(cart model.Cart) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.last = cart.Clone()
	for _, ch := range h.watchers {
		snapshot := cart.Clone()
		select {
		case ch <- snapshot:
		default:
			// 丟掉舊的, 保留最新
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.watchers {
		delete(h.watchers, id)
		close(ch)
	}
}
