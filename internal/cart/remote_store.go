package cart

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/errs"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type loopMsgKind int

const (
	msgApply   loopMsgKind = iota // 樂觀更新
	msgConfirm                    // 寫入成功
	msgRevert                     // 寫入失敗, 回到最後確認的快照
)

type loopMsg struct {
	kind  loopMsgKind
	cart  model.Cart
	gen   uint64 // 套用時的推送世代, confirm 時用來判斷中間是否有新的推送
	m     mutation
	reply chan applyResult
}

type applyResult struct {
	cart model.Cart
	gen  uint64
	err  error
}

/*
RemoteCartStore 登入使用者的購物車
單一 event loop goroutine 擁有狀態, 訂閱推送 / 樂觀更新 / 回滾都是送進 loop 的訊息
可觀察的購物車永遠是最後一個被套用的訊息
訂閱推送會整份取代目前狀態, 包含其他裝置的寫入與自己寫入的回音
每個 store 有自己的 writerID, 寫入時帶上遞增的 Seq; 只有自己較早寫入的回音 (Seq 小於目前) 會被丟棄
其他 writer 的快照一律套用, redis pub/sub 依寫入順序推送, 最後會收斂到遠端文件
*/
type RemoteCartStore struct {
	userID   string
	writerID string
	repo     DocumentRepository
	now      func() time.Time
	logger   *zerolog.Logger

	snapshot atomic.Pointer[model.Cart]
	hub      *hub

	msgs    chan loopMsg
	updates <-chan model.Cart
	cancel  context.CancelFunc
	done    chan struct{}

	writeMu   sync.Mutex // 同一時間只有一個修改在寫入
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewRemoteCartStore 先訂閱再讀取文件, 文件不存在時建立空的購物車
// 訂閱的生命週期不跟隨 ctx, 由 Close 結束
func NewRemoteCartStore(ctx context.Context, repo DocumentRepository, userID string, logger *zerolog.Logger) (*RemoteCartStore, error) {
	if userID == "" {
		return nil, errs.Validationf("user id is required for remote cart")
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("user_id", userID).Logger()

	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	updates, err := repo.WatchCart(subCtx, userID)
	if err != nil {
		cancel()
		return nil, errs.NewRemoteIOError("subscribe cart", err)
	}

	writerID := uuid.NewString()
	cart, err := repo.GetCart(ctx, userID)
	if errors.Is(err, errs.ErrNotFound) {
		cart = model.NewEmptyCart(userID)
		cart.UpdatedAt = time.Now().UTC()
		cart.Writer = writerID
		err = repo.SaveCart(ctx, cart)
	}
	if err != nil {
		cancel()
		return nil, errs.NewRemoteIOError("load cart", err)
	}

	s := &RemoteCartStore{
		userID:   userID,
		writerID: writerID,
		repo:     repo,
		now:      time.Now,
		logger:   &l,
		msgs:     make(chan loopMsg),
		updates:  updates,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	cart = s.normalize(cart)
	s.hub = newHub(cart)
	s.snapshot.Store(&cart)

	go s.run(subCtx, cart)
	return s, nil
}

func (s *RemoteCartStore) run(ctx context.Context, confirmed model.Cart) {
	defer close(s.done)
	defer s.hub.close()

	current := confirmed
	updates := s.updates
	var (
		seq uint64 // 自己最後一次寫入的序號
		gen uint64 // 套用過的推送數
	)
	for {
		select {
		case <-ctx.Done():
			return
		case cart, ok := <-updates:
			if !ok {
				s.logger.Warn().Msg("cart subscription closed")
				updates = nil
				continue
			}
			// 自己較早寫入的回音, 之後的寫入已經套用
			if cart.Writer == s.writerID && cart.Seq < seq {
				continue
			}
			cart = s.normalize(cart)
			gen++
			confirmed = cart
			current = cart
			s.set(current)
		case msg := <-s.msgs:
			switch msg.kind {
			case msgApply:
				next, err := apply(current, msg.m)
				if err == nil {
					seq++
					next.UpdatedAt = s.now().UTC()
					next.Writer = s.writerID
					next.Seq = seq
					current = next
					s.set(current)
				}
				msg.reply <- applyResult{cart: next, gen: gen, err: err}
			case msgConfirm:
				// 寫入期間已經收到新的推送時, 以推送為準
				if msg.gen == gen {
					confirmed = msg.cart
				}
			case msgRevert:
				current = confirmed
				s.set(current)
				msg.reply <- applyResult{cart: current}
			}
		}
	}
}

// normalize 讀回的文件不經過 Add 的檢查, 丟掉不合法的項目
func (s *RemoteCartStore) normalize(cart model.Cart) model.Cart {
	items, dropped := model.SanitizeItems(cart.Items)
	if dropped > 0 {
		s.logger.Warn().Int("dropped", dropped).Msg("drop invalid items from remote cart")
	}
	cart.UserID = s.userID
	cart.Items = items
	return cart
}

func (s *RemoteCartStore) set(cart model.Cart) {
	c := cart
	s.snapshot.Store(&c)
	s.hub.publish(c)
}

// send 把訊息送進 loop, loop 已經結束時回傳 ErrStoreClosed
func (s *RemoteCartStore) send(msg loopMsg) error {
	select {
	case s.msgs <- msg:
		return nil
	case <-s.done:
		return ErrStoreClosed
	}
}

func (s *RemoteCartStore) Items() []model.LineItem {
	return s.Cart().Items
}

func (s *RemoteCartStore) Cart() model.Cart {
	return s.snapshot.Load().Clone()
}

func (s *RemoteCartStore) Subtotal() decimal.Decimal {
	return s.snapshot.Load().Subtotal()
}

func (s *RemoteCartStore) Add(ctx context.Context, item model.LineItem) error {
	if err := model.ValidateLineItem(item); err != nil {
		return err
	}
	return s.mutate(ctx, addMutation(item))
}

func (s *RemoteCartStore) SetQuantity(ctx context.Context, itemID string, qty int) error {
	return s.mutate(ctx, setQuantityMutation(itemID, qty))
}

func (s *RemoteCartStore) Remove(ctx context.Context, itemID string) error {
	return s.mutate(ctx, removeMutation(itemID))
}

func (s *RemoteCartStore) Clear(ctx context.Context) error {
	return s.mutate(ctx, clearMutation())
}

func (s *RemoteCartStore) Watch() (<-chan model.Cart, func()) {
	return s.hub.watch()
}

// Close 取消訂閱並等待 event loop 結束, 可重複呼叫
func (s *RemoteCartStore) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
		<-s.done
	})
	return nil
}

/*
樂觀更新流程
1. loop 套用修改並推送給 watcher
2. 整份文件寫入遠端
3. 成功: 記錄為最後確認的快照; 失敗: 回到最後確認的快照並回傳 RemoteIOError
*/
func (s *RemoteCartStore) mutate(ctx context.Context, m mutation) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.closed.Load() {
		return ErrStoreClosed
	}

	reply := make(chan applyResult, 1)
	if err := s.send(loopMsg{kind: msgApply, m: m, reply: reply}); err != nil {
		return err
	}
	var res applyResult
	select {
	case res = <-reply:
	case <-s.done:
		return ErrStoreClosed
	}
	if res.err != nil {
		return res.err
	}

	if err := s.repo.SaveCart(ctx, res.cart); err != nil {
		s.logger.Error().Err(err).Msg("save remote cart failed, revert to last confirmed snapshot")
		s.revert()
		return errs.NewRemoteIOError("save cart", err)
	}

	// 寫入已經成功, loop 結束時不需要再記錄
	_ = s.send(loopMsg{kind: msgConfirm, cart: res.cart, gen: res.gen})
	return nil
}

// revert 等待 loop 套用回滾, 回傳時可觀察的狀態已經是最後確認的快照
func (s *RemoteCartStore) revert() {
	reply := make(chan applyResult, 1)
	if err := s.send(loopMsg{kind: msgRevert, reply: reply}); err != nil {
		return
	}
	select {
	case <-reply:
	case <-s.done:
	}
}

func (s *RemoteCartStore) UserID() string {
	return s.userID
}

var _ Store = (*RemoteCartStore)(nil)
