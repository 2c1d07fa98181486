package record

import (
	"slices"
	"strings"
)

// MaxLookups SPF 允许的 DNS 查询上限
const MaxLookups = 10

// 检查结果中的提示文本
const (
	MsgNoRecord      = "No SPF record found"
	MsgLookupFailed  = "Failed to check SPF record. Please verify your domain and API key configuration."
	MsgTooManyLookup = "Too many DNS lookups (max 10 allowed)"
	MsgMissingAll    = "Missing all mechanism qualifier"
	MsgPlusAll       = "Using +all is not recommended as it allows any server to send mail"
)

// 分析器识别的裸机制和限定符
var knownMechanisms = []string{"a", "mx", "ptr", "~all", "-all", "?all", "+all"}

// SPFCheckResult SPF 检查结果
type SPFCheckResult struct {
	IsValid    bool     `json:"isValid"`
	Record     string   `json:"record,omitempty"`
	Lookups    int      `json:"lookups"`
	Mechanisms []string `json:"mechanisms"`
	Includes   []string `json:"includes"`
	IPs        []string `json:"ips"`
	Errors     []string `json:"errors"`
	Warnings   []string `json:"warnings"`
}

func emptyResult() SPFCheckResult {
	return SPFCheckResult{
		Mechanisms: []string{},
		Includes:   []string{},
		IPs:        []string{},
		Errors:     []string{},
		Warnings:   []string{},
	}
}

// FailedCheckResult 外部查询失败时返回的结果
func FailedCheckResult() SPFCheckResult {
	r := emptyResult()
	r.Errors = append(r.Errors, MsgLookupFailed)
	return r
}

// FindSPFLine 返回第一条以 v=spf1 开头的行（按去除首尾空白后判断）
func FindSPFLine(raw string) (string, bool) {
	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "v=spf1") {
			return line, true
		}
	}
	return "", false
}

// Analyze 解析 DNS 查询返回的原始 TXT 文本。
//
// 只统计 include: 的查询次数；无法识别的 token 直接忽略。
// 警告不影响 IsValid。
func Analyze(raw string) SPFCheckResult {
	result := emptyResult()

	line, ok := FindSPFLine(raw)
	if !ok {
		result.Errors = append(result.Errors, MsgNoRecord)
		return result
	}

	result.IsValid = true
	result.Record = line

	parts := strings.Fields(line)
	for _, part := range parts {
		switch {
		case part == "v=spf1":
		case strings.HasPrefix(part, "include:"):
			result.Includes = append(result.Includes, strings.TrimPrefix(part, "include:"))
			result.Lookups++
		case strings.HasPrefix(part, "ip4:"), strings.HasPrefix(part, "ip6:"):
			result.IPs = append(result.IPs, part)
		case slices.Contains(knownMechanisms, part):
			result.Mechanisms = append(result.Mechanisms, part)
		}
	}

	if result.Lookups > MaxLookups {
		result.Warnings = append(result.Warnings, MsgTooManyLookup)
	}

	hasAll := slices.ContainsFunc(parts, func(p string) bool {
		return strings.HasSuffix(p, "all")
	})
	if !hasAll {
		result.Warnings = append(result.Warnings, MsgMissingAll)
	}

	if slices.Contains(parts, "+all") {
		result.Warnings = append(result.Warnings, MsgPlusAll)
	}

	return result
}
