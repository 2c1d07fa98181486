package lookup

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coldicp/mailtools/internal/config"
	mdns "github.com/miekg/dns"
	"github.com/sony/gobreaker"
)

func TestAPIClientLookupSPF(t *testing.T) {
	tests := []struct {
		name      string
		apiKey    string
		status    int
		body      string
		want      string
		wantErr   error
		anyErr    bool
		wantAuth  string
		checkAuth bool
	}{
		{
			name:      "正常返回",
			apiKey:    "secret",
			status:    http.StatusOK,
			body:      `{"RecordData":"v=spf1 include:_spf.google.com ~all"}`,
			want:      "v=spf1 include:_spf.google.com ~all",
			wantAuth:  "Basic " + base64.StdEncoding.EncodeToString([]byte("secret")),
			checkAuth: true,
		},
		{
			name:      "无密钥不带认证头",
			status:    http.StatusOK,
			body:      `{"RecordData":"v=spf1 -all"}`,
			want:      "v=spf1 -all",
			wantAuth:  "",
			checkAuth: true,
		},
		{
			name:    "非 2xx 状态",
			apiKey:  "secret",
			status:  http.StatusUnauthorized,
			body:    `{"error":"unauthorized"}`,
			wantErr: ErrBadStatus,
		},
		{
			name:    "缺少 RecordData",
			status:  http.StatusOK,
			body:    `{"Other":"x"}`,
			wantErr: ErrNoRecordData,
		},
		{
			name:    "RecordData 为空",
			status:  http.StatusOK,
			body:    `{"RecordData":""}`,
			wantErr: ErrNoRecordData,
		},
		{
			name:   "非法 JSON",
			status: http.StatusOK,
			body:   `<html>oops</html>`,
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth, gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				gotPath = r.URL.EscapedPath()
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewAPIClient(srv.URL+"/", tt.apiKey, srv.Client())
			got, err := c.LookupSPF(context.Background(), "example.com")

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("LookupSPF() error = %v, want %v", err, tt.wantErr)
				}
				return
			case tt.anyErr:
				if err == nil {
					t.Fatal("LookupSPF() 应该返回错误")
				}
				return
			case err != nil:
				t.Fatalf("LookupSPF() error = %v", err)
			}

			if got != tt.want {
				t.Errorf("LookupSPF() = %q, want %q", got, tt.want)
			}
			if gotPath != "/api/v1/lookup/spf/example.com" {
				t.Errorf("path = %q", gotPath)
			}
			if tt.checkAuth && gotAuth != tt.wantAuth {
				t.Errorf("Authorization = %q, want %q", gotAuth, tt.wantAuth)
			}
		})
	}
}

func TestAPIClientEscapesDomain(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"RecordData":"v=spf1 ~all"}`))
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "k", srv.Client())
	if _, err := c.LookupSPF(context.Background(), "a b/c"); err != nil {
		t.Fatalf("LookupSPF() error = %v", err)
	}
	if want := "/api/v1/lookup/spf/a%20b%2Fc"; gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
}

func TestJoinTXT(t *testing.T) {
	answer := []mdns.RR{
		&mdns.TXT{Hdr: mdns.RR_Header{Name: "example.com.", Rrtype: mdns.TypeTXT}, Txt: []string{"v=spf1 include:a.com ", "~all"}},
		&mdns.A{Hdr: mdns.RR_Header{Name: "example.com.", Rrtype: mdns.TypeA}},
		&mdns.TXT{Hdr: mdns.RR_Header{Name: "example.com.", Rrtype: mdns.TypeTXT}, Txt: []string{"google-site-verification=abc"}},
	}

	want := "v=spf1 include:a.com ~all\ngoogle-site-verification=abc"
	if got := joinTXT(answer); got != want {
		t.Errorf("joinTXT() = %q, want %q", got, want)
	}
	if got := joinTXT(nil); got != "" {
		t.Errorf("joinTXT(nil) = %q, want 空", got)
	}
}

func TestNewDNSClientAddsPort(t *testing.T) {
	c := NewDNSClient([]string{"9.9.9.9", "127.0.0.1:5353"})
	want := []string{"9.9.9.9:53", "127.0.0.1:5353"}
	for i, s := range want {
		if c.nameservers[i] != s {
			t.Errorf("nameservers[%d] = %q, want %q", i, c.nameservers[i], s)
		}
	}
}

func TestNew(t *testing.T) {
	r, err := New(config.LookupConfig{Backend: "api", BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := r.(*APIClient); !ok {
		t.Errorf("New() = %T, want *APIClient", r)
	}

	r, err = New(config.LookupConfig{Backend: "dns", Nameservers: []string{"127.0.0.1"}, Breaker: config.BreakerConfig{Enabled: true, FailureRatio: 0.5}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := r.(*Breaker); !ok {
		t.Errorf("New() = %T, want *Breaker", r)
	}

	if _, err := New(config.LookupConfig{Backend: "whois"}); err == nil {
		t.Error("New() 不支持的后端应该返回错误")
	}
}

func TestBreakerOpens(t *testing.T) {
	calls := 0
	failing := ResolverFunc(func(ctx context.Context, domain string) (string, error) {
		calls++
		return "", errors.New("upstream down")
	})

	b := NewBreaker(failing, config.BreakerConfig{
		MaxRequests:  1,
		Interval:     time.Minute,
		OpenTimeout:  time.Minute,
		FailureRatio: 0.5,
		MinRequests:  2,
	})

	for i := 0; i < 2; i++ {
		if _, err := b.LookupSPF(context.Background(), "example.com"); err == nil {
			t.Fatal("LookupSPF() 应该返回错误")
		}
	}

	if b.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open", b.State())
	}

	_, err := b.LookupSPF(context.Background(), "example.com")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("LookupSPF() error = %v, want ErrOpenState", err)
	}
	if calls != 2 {
		t.Errorf("上游调用次数 = %d, want 2", calls)
	}
}

func TestBreakerIgnoresCanceled(t *testing.T) {
	canceled := ResolverFunc(func(ctx context.Context, domain string) (string, error) {
		<-ctx.Done()
		return "", fmt.Errorf("查询中断: %w", ctx.Err())
	})

	b := NewBreaker(canceled, config.BreakerConfig{
		MaxRequests:  1,
		Interval:     time.Minute,
		OpenTimeout:  time.Minute,
		FailureRatio: 0.5,
		MinRequests:  2,
	})

	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := b.LookupSPF(ctx, "example.com"); !errors.Is(err, context.Canceled) {
			t.Fatalf("LookupSPF() error = %v, want context.Canceled", err)
		}
	}

	if b.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed", b.State())
	}
}

func TestBreakerPassesThrough(t *testing.T) {
	ok := ResolverFunc(func(ctx context.Context, domain string) (string, error) {
		return "v=spf1 ~all", nil
	})
	b := NewBreaker(ok, config.BreakerConfig{MaxRequests: 1, FailureRatio: 0.5, MinRequests: 1})

	got, err := b.LookupSPF(context.Background(), "example.com")
	if err != nil || got != "v=spf1 ~all" {
		t.Errorf("LookupSPF() = %q, %v", got, err)
	}
}
