package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/RoyceAzure/lab/storefront/internal/domain/errs"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
)

var errInjected = errors.New("injected failure")

// memStorage in-memory LocalStorage
type memStorage struct {
	mu      sync.Mutex
	data    map[string][]byte
	writes  int
	failSet bool
}

func newMemStorage() *memStorage {
	return &memStorage{data: map[string][]byte{}}
}

func (m *memStorage) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStorage) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errInjected
	}
	m.writes++
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memStorage) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *memStorage) setFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSet = fail
}

type subscription struct {
	ctx    context.Context
	userID string
	ch     chan model.Cart
}

// fakeDocRepo in-memory 文件儲存, 寫入時推送給訂閱者 (包含寫入者自己)
type fakeDocRepo struct {
	mu      sync.Mutex
	docs    map[string]model.Cart
	subs    map[*subscription]struct{}
	saves   int
	saveErr error
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{
		docs: map[string]model.Cart{},
		subs: map[*subscription]struct{}{},
	}
}

func (f *fakeDocRepo) GetCart(ctx context.Context, userID string) (model.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cart, ok := f.docs[userID]
	if !ok {
		return model.Cart{}, errs.NotFoundf("cart %s", userID)
	}
	return cart.Clone(), nil
}

func (f *fakeDocRepo) SaveCart(ctx context.Context, cart model.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.docs[cart.UserID] = cart.Clone()
	for sub := range f.subs {
		if sub.userID != cart.UserID {
			continue
		}
		select {
		case sub.ch <- cart.Clone():
		case <-sub.ctx.Done():
		}
	}
	return nil
}

func (f *fakeDocRepo) WatchCart(ctx context.Context, userID string) (<-chan model.Cart, error) {
	sub := &subscription{ctx: ctx, userID: userID, ch: make(chan model.Cart, 16)}
	f.mu.Lock()
	f.subs[sub] = struct{}{}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, sub)
		close(sub.ch)
	}()
	return sub.ch, nil
}

func (f *fakeDocRepo) doc(userID string) (model.Cart, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cart, ok := f.docs[userID]
	return cart, ok
}

func (f *fakeDocRepo) setSaveErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveErr = err
}

func (f *fakeDocRepo) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fakeDocRepo) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}
