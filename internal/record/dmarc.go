package record

import (
	"strconv"
	"strings"
)

const (
	// DefaultReportingInterval 默认聚合报告间隔（24 小时）
	DefaultReportingInterval = 86400
	// MinReportingInterval 聚合报告间隔下限（1 小时）
	MinReportingInterval = 3600
)

// DMARCPolicy DMARC 生成器输入
type DMARCPolicy struct {
	Domain            string          `json:"domain"`
	Policy            Policy          `json:"policy"`
	Percentage        int             `json:"percentage"`
	RUA               string          `json:"rua"`
	RUF               string          `json:"ruf,omitempty"`
	SubdomainPolicy   Policy          `json:"subdomainPolicy,omitempty"`
	SPFAlignment      Alignment       `json:"spfAlignment"`
	DKIMAlignment     Alignment       `json:"dkimAlignment"`
	ReportingInterval int             `json:"reportingInterval"`
	FailureOptions    []FailureOption `json:"failureOptions"`
}

// NewDMARCPolicy 返回带默认值的策略
func NewDMARCPolicy() DMARCPolicy {
	return DMARCPolicy{
		Policy:            PolicyNone,
		Percentage:        100,
		SubdomainPolicy:   PolicyNone,
		SPFAlignment:      AlignRelaxed,
		DKIMAlignment:     AlignRelaxed,
		ReportingInterval: DefaultReportingInterval,
		FailureOptions:    []FailureOption{FailureAny},
	}
}

// SetDomain 设置域名；域名非空时 rua 重新派生为 dmarc@<domain>
func (p *DMARCPolicy) SetDomain(domain string) {
	p.Domain = domain
	if domain != "" {
		p.RUA = "dmarc@" + domain
	}
}

// SetPercentage 设置百分比，限制在 0-100
func (p *DMARCPolicy) SetPercentage(pct int) {
	p.Percentage = ClampPercentage(pct)
}

// SetReportingInterval 设置报告间隔，0 视为未填写
func (p *DMARCPolicy) SetReportingInterval(seconds int) {
	p.ReportingInterval = NormalizeInterval(seconds)
}

// ToggleFailureOption 选中则移除，否则追加到末尾
func (p *DMARCPolicy) ToggleFailureOption(opt FailureOption) {
	for i, o := range p.FailureOptions {
		if o == opt {
			p.FailureOptions = append(p.FailureOptions[:i:i], p.FailureOptions[i+1:]...)
			return
		}
	}
	p.FailureOptions = append(p.FailureOptions, opt)
}

// ClampPercentage 将百分比限制在 0-100
func ClampPercentage(pct int) int {
	return min(100, max(0, pct))
}

// NormalizeInterval 0 返回默认值，其余不低于 MinReportingInterval
func NormalizeInterval(seconds int) int {
	if seconds == 0 {
		return DefaultReportingInterval
	}
	return max(MinReportingInterval, seconds)
}

// HostLabel 返回 DMARC 记录的 DNS 主机名
func HostLabel(domain string) string {
	return "_dmarc." + domain
}

// BuildDMARC 生成 DMARC TXT 记录。不做校验，调用方需先通过 Validate。
//
// 字段顺序固定：v, p, pct, aspf, adkim, rua, ri, fo。
// ri 只在 rua 存在时输出。
func BuildDMARC(p DMARCPolicy) string {
	if p.Domain == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString("v=DMARC1")

	write := func(tag, value string) {
		b.WriteByte(',')
		b.WriteString(tag)
		b.WriteByte('=')
		b.WriteString(value)
	}

	write("p", string(p.Policy))
	write("pct", strconv.Itoa(p.Percentage))
	write("aspf", string(p.SPFAlignment))
	write("adkim", string(p.DKIMAlignment))

	if p.RUA != "" {
		write("rua", "mailto:"+p.RUA)
		write("ri", strconv.Itoa(p.ReportingInterval))
	}

	if len(p.FailureOptions) > 0 {
		opts := make([]string, len(p.FailureOptions))
		for i, o := range p.FailureOptions {
			opts[i] = string(o)
		}
		write("fo", strings.Join(opts, ":"))
	}

	return b.String()
}
