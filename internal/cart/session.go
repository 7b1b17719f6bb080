package cart

import (
	"context"
	"sync"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/rs/zerolog"
)

type SessionOption func(*Session)

// WithLocalCartKey local storage 中購物車的 key
func WithLocalCartKey(key string) SessionOption {
	return func(s *Session) {
		s.localKey = key
	}
}

/*
Session 依照身分決定購物車模式
匿名 (userID 為空) 使用 local storage, 登入後使用遠端文件
切換身分時先建立新的 store, 成功後才關閉舊的; 建立失敗時保留原本的購物車
匿名購物車內容不會合併到登入後的購物車
*/
type Session struct {
	mu       sync.Mutex
	storage  LocalStorage
	repo     DocumentRepository
	localKey string
	logger   *zerolog.Logger

	store  Store
	userID string
	loaded bool
}

func NewSession(storage LocalStorage, repo DocumentRepository, logger *zerolog.Logger, opts ...SessionOption) *Session {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	s := &Session{
		storage:  storage,
		repo:     repo,
		localKey: DefaultLocalCartKey,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load 載入 userID 對應的購物車並回傳目前內容
// 相同身分重複呼叫不會重建 store
func (s *Session) Load(ctx context.Context, userID string) (model.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded && s.userID == userID {
		return s.store.Cart(), nil
	}

	store, err := s.newStore(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("load cart failed, keep previous cart")
		return model.Cart{}, err
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn().Err(err).Str("user_id", s.userID).Msg("close previous cart store failed")
		}
	}

	s.store = store
	s.userID = userID
	s.loaded = true
	s.logger.Info().Str("user_id", userID).Bool("anonymous", userID == "").Msg("cart loaded")
	return store.Cart(), nil
}

func (s *Session) newStore(ctx context.Context, userID string) (Store, error) {
	if userID == "" {
		return NewLocalCartStore(s.storage, s.localKey, s.logger)
	}
	return NewRemoteCartStore(ctx, s.repo, userID, s.logger)
}

// Store 目前使用中的購物車, 尚未 Load 時為 nil
func (s *Session) Store() Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store
}

func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Follow 依照身分變更通知切換購物車, 直到 ctx 結束或 channel 關閉
// Load 失敗只記錄, 繼續等待下一次變更
func (s *Session) Follow(ctx context.Context, identities <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case userID, ok := <-identities:
			if !ok {
				return nil
			}
			_, _ = s.Load(ctx, userID)
		}
	}
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	s.loaded = false
	return err
}
