package record

import (
	"fmt"
	"strings"
)

// Policy DMARC 处理策略
type Policy string

const (
	PolicyNone       Policy = "none"
	PolicyQuarantine Policy = "quarantine"
	PolicyReject     Policy = "reject"
)

// ParsePolicy 解析策略字符串，空字符串返回 none
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyNone:
		return PolicyNone, nil
	case PolicyQuarantine:
		return PolicyQuarantine, nil
	case PolicyReject:
		return PolicyReject, nil
	}
	return "", fmt.Errorf("无效的 DMARC 策略: %q", s)
}

// Alignment 标识符对齐模式
type Alignment string

const (
	AlignRelaxed Alignment = "r"
	AlignStrict  Alignment = "s"
)

// ParseAlignment 同时接受标签值 (r/s) 和全称 (relaxed/strict)
func ParseAlignment(s string) (Alignment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "r", "relaxed":
		return AlignRelaxed, nil
	case "s", "strict":
		return AlignStrict, nil
	}
	return "", fmt.Errorf("无效的对齐模式: %q", s)
}

// String 返回全称
func (a Alignment) String() string {
	if a == AlignStrict {
		return "strict"
	}
	return "relaxed"
}

// FailureOption 失败报告选项 (fo 标签)
type FailureOption string

const (
	FailureAll  FailureOption = "0" // 所有机制都失败
	FailureAny  FailureOption = "1" // 任一机制失败
	FailureDKIM FailureOption = "d"
	FailureSPF  FailureOption = "s"
)

// ParseFailureOption 解析失败报告选项
func ParseFailureOption(s string) (FailureOption, error) {
	switch o := FailureOption(strings.TrimSpace(s)); o {
	case FailureAll, FailureAny, FailureDKIM, FailureSPF:
		return o, nil
	}
	return "", fmt.Errorf("无效的失败报告选项: %q", s)
}

// Mechanism SPF 生成器可选的裸机制
type Mechanism string

const (
	MechanismMX  Mechanism = "mx"
	MechanismA   Mechanism = "a"
	MechanismPTR Mechanism = "ptr"
)

// ParseMechanism 解析机制
func ParseMechanism(s string) (Mechanism, error) {
	switch m := Mechanism(strings.ToLower(strings.TrimSpace(s))); m {
	case MechanismMX, MechanismA, MechanismPTR:
		return m, nil
	}
	return "", fmt.Errorf("无效的 SPF 机制: %q", s)
}
