package redis_client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	_instances = sync.Map{}
)

// GetRedisClient 同一個 address / db 共用一個 client
// 建立時先 Ping 確認連線
func GetRedisClient(ctx context.Context, address string, options ...Option) (*redis.Client, error) {
	opts := &redis.Options{
		Addr: address,
	}
	for _, option := range options {
		option(opts)
	}

	key := instanceKey(opts)
	if client, ok := _instances.Load(key); ok {
		return client.(*redis.Client), nil
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s failed: %w", address, err)
	}

	actual, loaded := _instances.LoadOrStore(key, client)
	if loaded {
		// 併發建立時保留先存入的 client
		client.Close()
	}
	return actual.(*redis.Client), nil
}

// CloseAll 關閉所有共用的 client, 程式結束時呼叫
func CloseAll() error {
	var firstErr error
	_instances.Range(func(key, value any) bool {
		if err := value.(*redis.Client).Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		_instances.Delete(key)
		return true
	})
	return firstErr
}

func instanceKey(opts *redis.Options) string {
	return fmt.Sprintf("%s/%d", opts.Addr, opts.DB)
}

type Option func(*redis.Options)

func WithPassword(password string) Option {
	return func(o *redis.Options) {
		o.Password = password
	}
}

func WithDB(db int) Option {
	return func(o *redis.Options) {
		o.DB = db
	}
}

func WithPoolSize(poolSize int) Option {
	return func(o *redis.Options) {
		o.PoolSize = poolSize
	}
}

func WithDialTimeout(timeout time.Duration) Option {
	return func(o *redis.Options) {
		o.DialTimeout = timeout
	}
}
