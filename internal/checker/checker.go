// Package checker 组合校验、外部查询和解析，完成一次 SPF 检查。
package checker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coldicp/mailtools/internal/logger"
	"github.com/coldicp/mailtools/internal/lookup"
	"github.com/coldicp/mailtools/internal/metrics"
	"github.com/coldicp/mailtools/internal/record"
)

// ErrSuperseded 检查被同一会话的新请求取代
var ErrSuperseded = errors.New("SPF 检查已被新的请求取代")

// Observer 检查结果的观测接口，由 metrics.Exporter 实现
type Observer interface {
	ObserveSPFCheck(outcome string, elapsed time.Duration)
	CheckStarted() func()
}

// Checker SPF 检查器
type Checker struct {
	resolver lookup.Resolver
	observer Observer
	now      func() time.Time
}

// New 创建检查器，observer 可以为 nil
func New(resolver lookup.Resolver, observer Observer) *Checker {
	return &Checker{
		resolver: resolver,
		observer: observer,
		now:      time.Now,
	}
}

// Check 校验域名后查询并解析 SPF 记录。
// 域名不合法时返回字段错误，不发起查询；查询失败时返回通用失败结果。
func (c *Checker) Check(ctx context.Context, domain string) (record.SPFCheckResult, record.FieldErrors) {
	if errs := record.Validate(domain, nil); !errs.OK() {
		return record.SPFCheckResult{}, errs
	}

	if c.observer != nil {
		done := c.observer.CheckStarted()
		defer done()
	}

	start := c.now()
	raw, err := c.resolver.LookupSPF(ctx, domain)
	elapsed := c.now().Sub(start)

	if err != nil && ctx.Err() != nil {
		// 调用方已经放弃，不计入指标
		logger.DebugCtx(ctx).Err(err).Str("domain", domain).Msg("SPF 检查已取消")
		return record.FailedCheckResult(), record.FieldErrors{}
	}
	if err != nil {
		logger.ErrorCtx(ctx).
			Err(err).
			Str("domain", domain).
			Dur("elapsed", elapsed).
			Msg("SPF 记录查询失败")
		c.observe(metrics.OutcomeFailed, elapsed)
		return record.FailedCheckResult(), record.FieldErrors{}
	}

	result := record.Analyze(raw)
	if result.IsValid {
		c.observe(metrics.OutcomeValid, elapsed)
	} else {
		c.observe(metrics.OutcomeInvalid, elapsed)
	}

	logger.DebugCtx(ctx).
		Str("domain", domain).
		Bool("valid", result.IsValid).
		Int("lookups", result.Lookups).
		Msg("SPF 检查完成")

	return result, record.FieldErrors{}
}

func (c *Checker) observe(outcome string, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveSPFCheck(outcome, elapsed)
	}
}

// Session 同一调用方的连续检查，新的检查会取消还在进行中的上一个。
// 零值不可用，使用 Checker.NewSession 创建。
type Session struct {
	checker *Checker

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewSession 创建会话
func (c *Checker) NewSession() *Session {
	return &Session{checker: c}
}

// Outcome 会话中一次检查的结果
type Outcome struct {
	Result record.SPFCheckResult
	Errors record.FieldErrors
	Err    error // 被更新的检查取代时为 ErrSuperseded
}

// Start 取消上一个未完成的检查，在后台开始新的检查。
// 返回的 channel 只会收到一个结果；调用返回时新检查已经生效，之后的 Start 一定会取代它。
func (s *Session) Start(ctx context.Context, domain string) <-chan Outcome {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.mu.Unlock()

	out := make(chan Outcome, 1)
	go func() {
		result, errs := s.checker.Check(ctx, domain)
		out <- s.finish(seq, cancel, result, errs)
	}()
	return out
}

func (s *Session) finish(seq uint64, cancel context.CancelFunc, result record.SPFCheckResult, errs record.FieldErrors) Outcome {
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return Outcome{Err: ErrSuperseded}
	}
	s.cancel = nil
	return Outcome{Result: result, Errors: errs}
}

// Check 同步版本的 Start。
// 结果返回前如果已有更新的检查开始，返回 ErrSuperseded，结果应丢弃。
func (s *Session) Check(ctx context.Context, domain string) (record.SPFCheckResult, record.FieldErrors, error) {
	o := <-s.Start(ctx, domain)
	return o.Result, o.Errors, o.Err
}

// Close 取消进行中的检查
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
