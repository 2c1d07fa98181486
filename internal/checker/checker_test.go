package checker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coldicp/mailtools/internal/lookup"
	"github.com/coldicp/mailtools/internal/metrics"
	"github.com/coldicp/mailtools/internal/record"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
	inflight int
}

func (o *recordingObserver) ObserveSPFCheck(outcome string, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *recordingObserver) CheckStarted() func() {
	o.mu.Lock()
	o.inflight++
	o.mu.Unlock()
	return func() {
		o.mu.Lock()
		o.inflight--
		o.mu.Unlock()
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name        string
		domain      string
		raw         string
		lookupErr   error
		wantValid   bool
		wantErrors  []string
		wantField   string
		wantOutcome string
		wantCalls   int
	}{
		{
			name:        "有效记录",
			domain:      "example.com",
			raw:         "google-site-verification=x\nv=spf1 include:_spf.google.com ~all",
			wantValid:   true,
			wantErrors:  []string{},
			wantOutcome: metrics.OutcomeValid,
			wantCalls:   1,
		},
		{
			name:        "没有 SPF 记录",
			domain:      "example.com",
			raw:         "google-site-verification=x",
			wantErrors:  []string{record.MsgNoRecord},
			wantOutcome: metrics.OutcomeInvalid,
			wantCalls:   1,
		},
		{
			name:        "查询失败",
			domain:      "example.com",
			lookupErr:   lookup.ErrBadStatus,
			wantErrors:  []string{record.MsgLookupFailed},
			wantOutcome: metrics.OutcomeFailed,
			wantCalls:   1,
		},
		{
			name:      "域名为空不查询",
			domain:    "",
			wantField: record.MsgDomainRequired,
		},
		{
			name:      "域名格式错误不查询",
			domain:    "-bad",
			wantField: record.MsgDomainInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			r := lookup.ResolverFunc(func(ctx context.Context, domain string) (string, error) {
				calls++
				return tt.raw, tt.lookupErr
			})
			obs := &recordingObserver{}
			c := New(r, obs)

			result, errs := c.Check(context.Background(), tt.domain)

			if errs.Domain != tt.wantField {
				t.Errorf("FieldErrors.Domain = %q, want %q", errs.Domain, tt.wantField)
			}
			if calls != tt.wantCalls {
				t.Errorf("查询次数 = %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantField != "" {
				return
			}

			if result.IsValid != tt.wantValid {
				t.Errorf("IsValid = %v, want %v", result.IsValid, tt.wantValid)
			}
			if len(result.Errors) != len(tt.wantErrors) {
				t.Fatalf("Errors = %v, want %v", result.Errors, tt.wantErrors)
			}
			for i := range tt.wantErrors {
				if result.Errors[i] != tt.wantErrors[i] {
					t.Errorf("Errors[%d] = %q, want %q", i, result.Errors[i], tt.wantErrors[i])
				}
			}
			if len(obs.outcomes) != 1 || obs.outcomes[0] != tt.wantOutcome {
				t.Errorf("outcomes = %v, want [%s]", obs.outcomes, tt.wantOutcome)
			}
			if obs.inflight != 0 {
				t.Errorf("inflight = %d, want 0", obs.inflight)
			}
		})
	}
}

func TestCheckNilObserver(t *testing.T) {
	c := New(lookup.ResolverFunc(func(ctx context.Context, domain string) (string, error) {
		return "v=spf1 -all", nil
	}), nil)

	result, errs := c.Check(context.Background(), "example.com")
	if !errs.OK() || !result.IsValid {
		t.Errorf("Check() = %+v, %+v", result, errs)
	}
}

func TestSessionSupersedes(t *testing.T) {
	started := make(chan struct{})
	r := lookup.ResolverFunc(func(ctx context.Context, domain string) (string, error) {
		if domain == "slow.com" {
			close(started)
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "v=spf1 -all", nil
	})

	s := New(r, nil).NewSession()
	defer s.Close()

	type outcome struct {
		result record.SPFCheckResult
		err    error
	}
	first := make(chan outcome, 1)
	go func() {
		result, _, err := s.Check(context.Background(), "slow.com")
		first <- outcome{result, err}
	}()

	<-started
	result, errs, err := s.Check(context.Background(), "fast.com")
	if err != nil || !errs.OK() {
		t.Fatalf("第二次检查失败: %v %+v", err, errs)
	}
	if !result.IsValid {
		t.Errorf("第二次检查 IsValid = false")
	}

	select {
	case got := <-first:
		if !errors.Is(got.err, ErrSuperseded) {
			t.Errorf("第一次检查 err = %v, want ErrSuperseded", got.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("第一次检查没有被取消")
	}
}

func TestSessionSequential(t *testing.T) {
	s := New(lookup.ResolverFunc(func(ctx context.Context, domain string) (string, error) {
		return "v=spf1 mx ~all", nil
	}), nil).NewSession()

	for i := 0; i < 3; i++ {
		result, _, err := s.Check(context.Background(), "example.com")
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if !result.IsValid {
			t.Error("IsValid = false")
		}
	}
}

func TestCheckCanceledNotObserved(t *testing.T) {
	obs := &recordingObserver{}
	c := New(lookup.ResolverFunc(func(ctx context.Context, domain string) (string, error) {
		return "", ctx.Err()
	}), obs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, _ := c.Check(ctx, "example.com")
	if result.IsValid {
		t.Error("取消的检查 IsValid = true")
	}
	if len(obs.outcomes) != 0 {
		t.Errorf("outcomes = %v, want 空", obs.outcomes)
	}
}

func TestSessionStartOrder(t *testing.T) {
	s := New(lookup.ResolverFunc(func(ctx context.Context, domain string) (string, error) {
		if domain == "slow.com" {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "v=spf1 -all", nil
	}), nil).NewSession()
	defer s.Close()

	first := s.Start(context.Background(), "slow.com")
	second := s.Start(context.Background(), "fast.com")

	if o := <-first; !errors.Is(o.Err, ErrSuperseded) {
		t.Errorf("第一次检查 Err = %v, want ErrSuperseded", o.Err)
	}
	o := <-second
	if o.Err != nil || !o.Result.IsValid {
		t.Errorf("第二次检查 = %+v", o)
	}
}
