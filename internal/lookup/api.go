package lookup

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/coldicp/mailtools/internal/logger"
)

// maxResponseSize 查询 API 响应体上限
const maxResponseSize = 1 << 20

// APIClient 外部 DNS 查询 API 客户端
type APIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// lookupResponse 查询 API 的响应，只关心 RecordData
type lookupResponse struct {
	RecordData *string `json:"RecordData"`
}

// NewAPIClient 创建 API 客户端。apiKey 为空时只记录警告，请求将不带凭据。
func NewAPIClient(baseURL, apiKey string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if apiKey == "" {
		logger.Warn().Str("base_url", baseURL).Msg("未配置查询 API 密钥，SPF 检查请求将不带认证")
	}

	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// LookupSPF 请求 GET /api/v1/lookup/spf/{domain}，返回 RecordData
func (c *APIClient) LookupSPF(ctx context.Context, domain string) (string, error) {
	endpoint := c.baseURL + "/api/v1/lookup/spf/" + url.PathEscape(domain)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.apiKey)))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("请求查询 API 失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	logger.DebugCtx(ctx).
		Str("domain", domain).
		Int("status", resp.StatusCode).
		RawJSON("response", compactJSON(body)).
		Msg("查询 API 响应")

	var data lookupResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("解析响应失败: %w", err)
	}

	if data.RecordData == nil || *data.RecordData == "" {
		return "", ErrNoRecordData
	}

	return *data.RecordData, nil
}

// compactJSON 合法 JSON 原样返回，否则转成 JSON 字符串，保证日志可写
func compactJSON(body []byte) []byte {
	if json.Valid(body) {
		return body
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}
