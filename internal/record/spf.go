package record

import (
	"slices"
	"strings"
)

// SPFRecord SPF 生成器输入
type SPFRecord struct {
	Includes   []string    `json:"includes"`
	IPs        []string    `json:"ips"`
	Mechanisms []Mechanism `json:"mechanisms"`
}

// Provider 常见邮件服务商的 include 域名
type Provider struct {
	Label   string `json:"label"`
	Include string `json:"value"`
}

// Providers 服务商目录，顺序即展示顺序
var Providers = []Provider{
	{Label: "Microsoft 365", Include: "spf.protection.outlook.com"},
	{Label: "Amazon SES", Include: "amazonses.com"},
	{Label: "Google Workspace", Include: "_spf.google.com"},
	{Label: "SMTP.com", Include: "spf.smtp.com"},
	{Label: "Mailgun", Include: "mailgun.org"},
	{Label: "SendGrid", Include: "sendgrid.net"},
	{Label: "Mailchimp", Include: "servers.mcsv.net"},
}

// LookupProvider 按 include 域名或名称查找服务商
func LookupProvider(key string) (Provider, bool) {
	for _, p := range Providers {
		if p.Include == key || strings.EqualFold(p.Label, key) {
			return p, true
		}
	}
	return Provider{}, false
}

// DefaultSPFRecord 生成器初始状态
func DefaultSPFRecord() SPFRecord {
	return SPFRecord{
		Includes:   []string{"spf.protection.outlook.com"},
		IPs:        []string{},
		Mechanisms: []Mechanism{MechanismMX, MechanismA},
	}
}

// SelectProvider 用单个服务商替换 include 列表
func (r *SPFRecord) SelectProvider(p Provider) {
	r.Includes = []string{p.Include}
}

// ToggleInclude 已存在则移除，否则追加
func (r *SPFRecord) ToggleInclude(include string) {
	if i := slices.Index(r.Includes, include); i >= 0 {
		r.Includes = slices.Delete(slices.Clone(r.Includes), i, i+1)
		return
	}
	r.Includes = append(r.Includes, include)
}

// ToggleMechanism 已存在则移除，否则追加
func (r *SPFRecord) ToggleMechanism(m Mechanism) {
	if i := slices.Index(r.Mechanisms, m); i >= 0 {
		r.Mechanisms = slices.Delete(slices.Clone(r.Mechanisms), i, i+1)
		return
	}
	r.Mechanisms = append(r.Mechanisms, m)
}

// AddIP 追加 IP，忽略空值和重复值
func (r *SPFRecord) AddIP(ip string) {
	if ip == "" || slices.Contains(r.IPs, ip) {
		return
	}
	r.IPs = append(r.IPs, ip)
}

// BuildSPF 生成 SPF TXT 记录，结尾固定为 ~all。
//
// 所有地址都以 ip4: 输出，IPv6 地址也不例外；裸地址补 /32。
func BuildSPF(r SPFRecord) string {
	parts := make([]string, 0, 2+len(r.Mechanisms)+len(r.Includes)+len(r.IPs))
	parts = append(parts, "v=spf1")

	for _, m := range r.Mechanisms {
		parts = append(parts, string(m))
	}
	for _, inc := range r.Includes {
		parts = append(parts, "include:"+inc)
	}
	for _, ip := range r.IPs {
		if strings.Contains(ip, "/") {
			parts = append(parts, "ip4:"+ip)
		} else {
			parts = append(parts, "ip4:"+ip+"/32")
		}
	}

	parts = append(parts, "~all")
	return strings.Join(parts, " ")
}
