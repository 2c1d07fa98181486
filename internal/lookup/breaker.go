package lookup

import (
	"context"
	"errors"

	"github.com/coldicp/mailtools/internal/config"
	"github.com/coldicp/mailtools/internal/logger"
	"github.com/sony/gobreaker"
)

// Breaker 为查询器加熔断。熔断打开时直接返回错误，调用方按查询失败处理。
type Breaker struct {
	next Resolver
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker 创建熔断查询器
func NewBreaker(next Resolver, cfg config.BreakerConfig) *Breaker {
	minRequests := cfg.MinRequests
	ratio := cfg.FailureRatio

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "spf-lookup",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= ratio
		},
		// 调用方取消不算上游失败
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn().
				Str("name", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("熔断器状态变化")
		},
	})

	return &Breaker{next: next, cb: cb}
}

// LookupSPF 实现 Resolver
func (b *Breaker) LookupSPF(ctx context.Context, domain string) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.LookupSPF(ctx, domain)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// State 当前熔断状态
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
