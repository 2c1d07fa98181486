// Package client mailtools 服务的 HTTP 客户端
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/coldicp/mailtools/internal/record"
)

// Client API 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// CheckResponse GET /api/v1/spf/check/:domain 的响应
type CheckResponse struct {
	Domain string                `json:"domain"`
	Result record.SPFCheckResult `json:"result"`
}

// FieldError 服务端返回 422 时的字段错误
type FieldError struct {
	Errors map[string]string `json:"errors"`
}

func (e *FieldError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e.Errors[field])
	}
	return strings.Join(parts, "; ")
}

// NewClient 创建客户端
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CheckSPF 请求服务端检查域名的 SPF 记录
func (c *Client) CheckSPF(ctx context.Context, domain string) (*CheckResponse, error) {
	var out CheckResponse
	if err := c.get(ctx, "/api/v1/spf/check/"+url.PathEscape(domain), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// HealthResponse GET /health 的响应
type HealthResponse struct {
	Status string `json:"status"`
	Time   int64  `json:"time"`
}

// Health 检查服务是否可用
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.get(ctx, "/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		var fe FieldError
		if err := json.Unmarshal(body, &fe); err != nil {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, body)
		}
		return &fe
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	return nil
}
