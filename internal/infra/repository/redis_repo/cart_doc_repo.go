package redis_repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/storefront/internal/domain/errs"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// 寫入文件並通知訂閱者, 使用 Lua 腳本確保原子性
// KEYS[1]: doc key, KEYS[2]: channel, ARGV[1]: cart json
var saveCartScript = redis.NewScript(`
	redis.call('SET', KEYS[1], ARGV[1])
	redis.call('PUBLISH', KEYS[2], ARGV[1])
	return 1
`)

const watchBufferSize = 16

// CartDocRepo 每個 user 一份購物車文件 (JSON)
// 每次寫入都會把完整文件 publish 到 cart:{userID}:changes
type CartDocRepo struct {
	client *redis.Client
	logger *zerolog.Logger
}

func NewCartDocRepo(client *redis.Client, logger *zerolog.Logger) *CartDocRepo {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &CartDocRepo{client: client, logger: logger}
}

func generateCartDocKey(userID string) string {
	return fmt.Sprintf("cart:%s:doc", userID)
}

func generateCartChannel(userID string) string {
	return fmt.Sprintf("cart:%s:changes", userID)
}

// GetCart 文件不存在回傳 errs.ErrNotFound
func (r *CartDocRepo) GetCart(ctx context.Context, userID string) (model.Cart, error) {
	data, err := r.client.Get(ctx, generateCartDocKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Cart{}, errs.NotFoundf("cart %s", userID)
	}
	if err != nil {
		return model.Cart{}, errs.NewRemoteIOError("get cart", err)
	}

	var cart model.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return model.Cart{}, fmt.Errorf("decode cart %s: %w", userID, err)
	}
	cart.UserID = userID
	if cart.Items == nil {
		cart.Items = []model.LineItem{}
	}
	return cart, nil
}

// SaveCart 整份覆寫, last-write-wins
func (r *CartDocRepo) SaveCart(ctx context.Context, cart model.Cart) error {
	if cart.UserID == "" {
		return errs.Validationf("cart user id is required")
	}
	if cart.Items == nil {
		cart.Items = []model.LineItem{}
	}
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", cart.UserID, err)
	}

	keys := []string{generateCartDocKey(cart.UserID), generateCartChannel(cart.UserID)}
	if err := saveCartScript.Run(ctx, r.client, keys, data).Err(); err != nil {
		return errs.NewRemoteIOError("save cart", err)
	}
	return nil
}

/*
WatchCart 訂閱文件變更
回傳前確認訂閱已經建立, 之後的寫入都會收到
ctx 結束時取消訂閱並關閉 channel
*/
func (r *CartDocRepo) WatchCart(ctx context.Context, userID string) (<-chan model.Cart, error) {
	channel := generateCartChannel(userID)
	pubsub := r.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, errs.NewRemoteIOError("subscribe cart", err)
	}

	out := make(chan model.Cart, watchBufferSize)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var cart model.Cart
				if err := json.Unmarshal([]byte(msg.Payload), &cart); err != nil {
					r.logger.Warn().Err(err).Str("channel", channel).Msg("skip invalid cart payload")
					continue
				}
				cart.UserID = userID
				select {
				case out <- cart:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
