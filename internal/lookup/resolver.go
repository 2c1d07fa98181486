// Package lookup 获取域名的原始 SPF TXT 文本。
//
// 默认通过外部 DNS 查询 API（返回 JSON 的 RecordData 字段），也可以直接查询 DNS。
// 返回值是按行分隔的原始记录文本，解析交给 record.Analyze。
package lookup

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coldicp/mailtools/internal/config"
)

var (
	// ErrBadStatus 查询 API 返回非 2xx
	ErrBadStatus = errors.New("查询 API 返回错误状态")
	// ErrNoRecordData 响应中缺少 RecordData
	ErrNoRecordData = errors.New("响应中缺少 RecordData")
	// ErrDNSFailure DNS 服务器返回错误响应码
	ErrDNSFailure = errors.New("DNS 查询失败")
)

// Resolver 原始 SPF 文本查询接口
type Resolver interface {
	LookupSPF(ctx context.Context, domain string) (string, error)
}

// ResolverFunc 函数适配器
type ResolverFunc func(ctx context.Context, domain string) (string, error)

// LookupSPF 实现 Resolver
func (f ResolverFunc) LookupSPF(ctx context.Context, domain string) (string, error) {
	return f(ctx, domain)
}

// New 按配置创建查询器，启用熔断时包一层 Breaker
func New(cfg config.LookupConfig) (Resolver, error) {
	var r Resolver

	switch cfg.Backend {
	case "", "api":
		r = NewAPIClient(cfg.BaseURL, cfg.APIKey, http.DefaultClient)
	case "dns":
		r = NewDNSClient(cfg.Nameservers)
	default:
		return nil, fmt.Errorf("不支持的查询后端: %s", cfg.Backend)
	}

	if cfg.Breaker.Enabled {
		r = NewBreaker(r, cfg.Breaker)
	}

	return r, nil
}
