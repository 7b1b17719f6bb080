package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const DefaultLocalCartKey = "cart"

// LocalCartStore 匿名訪客的購物車, 每次修改都把整份購物車寫回 local storage
type LocalCartStore struct {
	mu      sync.Mutex
	storage LocalStorage
	key     string
	cart    model.Cart
	hub     *hub
	closed  bool
	now     func() time.Time
	logger  *zerolog.Logger
}

// NewLocalCartStore 讀取 local storage 的購物車, 沒有資料時從空購物車開始
func NewLocalCartStore(storage LocalStorage, key string, logger *zerolog.Logger) (*LocalCartStore, error) {
	if key == "" {
		key = DefaultLocalCartKey
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	s := &LocalCartStore{
		storage: storage,
		key:     key,
		cart:    model.NewEmptyCart(""),
		now:     time.Now,
		logger:  logger,
	}

	data, ok, err := storage.Get(key)
	if err != nil {
		return nil, fmt.Errorf("read local cart: %w", err)
	}
	if ok {
		var stored model.Cart
		if err := json.Unmarshal(data, &stored); err != nil {
			// 資料損毀時丟棄, 從空購物車開始
			logger.Warn().Err(err).Str("key", key).Msg("discard corrupted local cart")
		} else {
			items, dropped := model.SanitizeItems(stored.Items)
			if dropped > 0 {
				logger.Warn().Int("dropped", dropped).Str("key", key).Msg("drop invalid items from local cart")
			}
			stored.UserID = ""
			stored.Items = items
			s.cart = stored
		}
	}
	s.hub = newHub(s.cart)
	return s, nil
}

func (s *LocalCartStore) Items() []model.LineItem {
	return s.Cart().Items
}

func (s *LocalCartStore) Cart() model.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

func (s *LocalCartStore) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Subtotal()
}

func (s *LocalCartStore) Add(ctx context.Context, item model.LineItem) error {
	if err := model.ValidateLineItem(item); err != nil {
		return err
	}
	return s.mutate(addMutation(item))
}

func (s *LocalCartStore) SetQuantity(ctx context.Context, itemID string, qty int) error {
	return s.mutate(setQuantityMutation(itemID, qty))
}

func (s *LocalCartStore) Remove(ctx context.Context, itemID string) error {
	return s.mutate(removeMutation(itemID))
}

func (s *LocalCartStore) Clear(ctx context.Context) error {
	return s.mutate(clearMutation())
}

func (s *LocalCartStore) Watch() (<-chan model.Cart, func()) {
	return s.hub.watch()
}

// Close 之後不會再寫入 local storage
func (s *LocalCartStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.hub.close()
	return nil
}

// mutate 寫入失敗時保留原本的狀態
func (s *LocalCartStore) mutate(m mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	next, err := apply(s.cart, m)
	if err != nil {
		return err
	}
	next.UpdatedAt = s.now().UTC()

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode local cart: %w", err)
	}
	if err := s.storage.Set(s.key, data); err != nil {
		s.logger.Error().Err(err).Str("key", s.key).Msg("persist local cart failed")
		return fmt.Errorf("persist local cart: %w", err)
	}

	s.cart = next
	s.hub.publish(next)
	return nil
}

var _ Store = (*LocalCartStore)(nil)
