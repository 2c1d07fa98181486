// Package ratelimit 按客户端限制 SPF 检查频率，避免消耗外部查询 API 配额。
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// idleTTL 超过该时间未访问的令牌桶会被清理
const idleTTL = 24 * time.Hour

// Limiter 按 key（通常是客户端 IP）分配令牌桶
type Limiter struct {
	limit   int
	window  time.Duration
	buckets map[string]*TokenBucket
	mu      sync.Mutex
	now     func() time.Time
}

// New 创建限流器，每个 key 在 window 内最多 limit 次
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*TokenBucket),
		now:     time.Now,
	}
}

// Allow 检查 key 是否还有配额
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	bucket, ok := l.buckets[key]
	if !ok {
		bucket = newTokenBucket(l.limit, l.window, l.now())
		l.buckets[key] = bucket
	}
	l.mu.Unlock()

	return bucket.allow(l.now())
}

// Len 当前跟踪的 key 数量
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Sweep 删除长时间未访问的令牌桶
func (l *Limiter) Sweep() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, bucket := range l.buckets {
		if now.Sub(bucket.idleSince()) > idleTTL {
			delete(l.buckets, key)
		}
	}
}

// Cleanup 每小时清理一次，直到 ctx 结束
func (l *Limiter) Cleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Sweep()
		case <-ctx.Done():
			return
		}
	}
}

// TokenBucket 令牌桶
type TokenBucket struct {
	capacity   int
	refillRate time.Duration
	tokens     int
	lastRefill time.Time
	lastAccess time.Time
	mu         sync.Mutex
}

func newTokenBucket(capacity int, window time.Duration, now time.Time) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		refillRate: window / time.Duration(capacity),
		tokens:     capacity,
		lastRefill: now,
		lastAccess: now,
	}
}

func (tb *TokenBucket) allow(now time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.lastAccess = now

	// 补充令牌
	if tb.refillRate > 0 {
		added := int(now.Sub(tb.lastRefill) / tb.refillRate)
		if added > 0 {
			tb.tokens = min(tb.capacity, tb.tokens+added)
			tb.lastRefill = tb.lastRefill.Add(time.Duration(added) * tb.refillRate)
		}
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

func (tb *TokenBucket) idleSince() time.Time {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.lastAccess
}
