package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/api/response"
)

/*
TokenBucket 全域限流
容量 capacity, 每秒補充 ratePS 個 token
補充在 Allow 時依經過時間計算, 不需要背景 goroutine
*/
type TokenBucket struct {
	mu           sync.Mutex
	capacity     float64
	ratePS       float64
	current      float64
	lastRefilled time.Time
	now          func() time.Time
}

func NewTokenBucket(capacity, ratePS int64) *TokenBucket {
	return newTokenBucket(capacity, ratePS, time.Now)
}

func newTokenBucket(capacity, ratePS int64, now func() time.Time) *TokenBucket {
	return &TokenBucket{
		capacity:     float64(capacity),
		ratePS:       float64(ratePS),
		current:      float64(capacity),
		lastRefilled: now(),
		now:          now,
	}
}

func (t *TokenBucket) Allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	elapsed := now.Sub(t.lastRefilled)
	if elapsed > 0 {
		t.current += elapsed.Seconds() * t.ratePS
		if t.current > t.capacity {
			t.current = t.capacity
		}
		t.lastRefilled = now
	}

	if t.current < 1 {
		return false
	}
	t.current--
	return true
}

// NewRateLimitMiddleware 超過限制回 429
func NewRateLimitMiddleware(bucket *TokenBucket) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !bucket.Allow() {
				response.ErrorJSON(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
