package lookup

import (
	"context"
	"fmt"
	"strings"
	"time"

	mdns "github.com/miekg/dns"
)

// defaultDNSTimeout 单次 DNS 查询超时
const defaultDNSTimeout = 5 * time.Second

// DNSClient 直接查询 DNS TXT 记录，输出格式与查询 API 的 RecordData 一致
type DNSClient struct {
	nameservers []string
	client      *mdns.Client
}

// NewDNSClient 创建 DNS 客户端，nameservers 为空时读取 /etc/resolv.conf
func NewDNSClient(nameservers []string) *DNSClient {
	if len(nameservers) == 0 {
		nameservers = systemNameservers()
	}

	servers := make([]string, 0, len(nameservers))
	for _, s := range nameservers {
		if !strings.Contains(s, ":") {
			s += ":53"
		}
		servers = append(servers, s)
	}

	return &DNSClient{
		nameservers: servers,
		client:      &mdns.Client{Timeout: defaultDNSTimeout},
	}
}

// systemNameservers 读取系统 DNS 服务器，失败时使用公共 DNS
func systemNameservers() []string {
	conf, err := mdns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(conf.Servers) == 0 {
		return []string{"8.8.8.8:53", "1.1.1.1:53"}
	}
	return conf.Servers
}

// LookupSPF 查询 TXT 记录。每条记录的字符串片段直接拼接，记录之间以换行分隔。
// 按顺序尝试各服务器，每台只请求一次。
func (c *DNSClient) LookupSPF(ctx context.Context, domain string) (string, error) {
	m := new(mdns.Msg)
	m.SetQuestion(mdns.Fqdn(domain), mdns.TypeTXT)
	m.RecursionDesired = true

	var lastErr error
	for _, server := range c.nameservers {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		resp, _, err := c.client.ExchangeContext(ctx, m, server)
		if err != nil {
			lastErr = fmt.Errorf("请求 %s 失败: %w", server, err)
			continue
		}

		if resp.Rcode != mdns.RcodeSuccess {
			return "", fmt.Errorf("%w: %s", ErrDNSFailure, mdns.RcodeToString[resp.Rcode])
		}

		return joinTXT(resp.Answer), nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: 没有可用的 DNS 服务器", ErrDNSFailure)
	}
	return "", lastErr
}

func joinTXT(answer []mdns.RR) string {
	lines := make([]string, 0, len(answer))
	for _, rr := range answer {
		if txt, ok := rr.(*mdns.TXT); ok {
			lines = append(lines, strings.Join(txt.Txt, ""))
		}
	}
	return strings.Join(lines, "\n")
}
