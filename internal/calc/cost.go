// Package calc 冷邮件投放相关的计算工具：成本、ROI 和备用域名建议。
package calc

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrUnknownESP 邮件服务商不在目录中
	ErrUnknownESP = errors.New("未知的邮件服务商")
	// ErrUnknownSequencer 发信工具不在目录中
	ErrUnknownSequencer = errors.New("未知的发信工具")
	// ErrInvalidTimeframe 无效的周期
	ErrInvalidTimeframe = errors.New("无效的周期")
	// ErrOutOfRange 数值超出允许范围
	ErrOutOfRange = errors.New("数值超出范围")
)

// ESP 邮件服务商目录项
type ESP struct {
	Name               string  `json:"name"`
	MonthlyPrice       float64 `json:"monthlyPrice"`
	UsersIncluded      int     `json:"usersIncluded"`
	AdditionalUserCost float64 `json:"additionalUserCost"`
}

// Sequencer 发信工具目录项
type Sequencer struct {
	Name           string  `json:"name"`
	MonthlyPrice   float64 `json:"monthlyPrice"`
	EmailsPerMonth int     `json:"emailsPerMonth"`
}

// ESPs 邮件服务商目录，价格由用户填写
var ESPs = []ESP{
	{Name: "Google Workspace", UsersIncluded: 1},
	{Name: "Microsoft 365", UsersIncluded: 1},
	{Name: "Zoho", UsersIncluded: 1},
	{Name: "Mailforge", UsersIncluded: 1},
	{Name: "Zapmail", UsersIncluded: 1},
	{Name: "Mailreef", UsersIncluded: 1},
	{Name: "Other (ESP)", UsersIncluded: 1},
}

// Sequencers 发信工具目录
var Sequencers = []Sequencer{
	{Name: "Smartlead"},
	{Name: "Instantly"},
	{Name: "Lemlist"},
	{Name: "Saleshandly"},
	{Name: "Reply.io"},
	{Name: "Reachinbox"},
	{Name: "Other (Sequencer)"},
}

// Timeframe 汇总周期
type Timeframe string

const (
	Monthly     Timeframe = "monthly"
	ThreeMonths Timeframe = "3months"
	SixMonths   Timeframe = "6months"
	NineMonths  Timeframe = "9months"
	Annual      Timeframe = "annual"
)

// 表单默认选中项
const (
	DefaultESP       = "Google Workspace"
	DefaultSequencer = "Smartlead"
)

var timeframeMonths = map[Timeframe]int{
	Monthly:     1,
	ThreeMonths: 3,
	SixMonths:   6,
	NineMonths:  9,
	Annual:      12,
}

// ParseTimeframe 空字符串视为 monthly
func ParseTimeframe(s string) (Timeframe, error) {
	if s == "" {
		return Monthly, nil
	}
	tf := Timeframe(s)
	if _, ok := timeframeMonths[tf]; !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidTimeframe, s)
	}
	return tf, nil
}

// Months 周期包含的月数
func (t Timeframe) Months() int {
	return timeframeMonths[t]
}

// Infrastructure 每月基础设施费用
type Infrastructure struct {
	Servers     float64 `json:"servers"`
	Security    float64 `json:"security"`
	Maintenance float64 `json:"maintenance"`
	Backup      float64 `json:"backup"`
	Other       float64 `json:"other"`
}

// Total 合计
func (i Infrastructure) Total() float64 {
	return i.Servers + i.Security + i.Maintenance + i.Backup + i.Other
}

// CostInput 成本计算输入
type CostInput struct {
	ESP            string         `json:"esp"`
	CostPerUser    float64        `json:"costPerUser"`
	Users          int            `json:"users"`
	Sequencer      string         `json:"sequencer"`
	SequencerCost  float64        `json:"sequencerCost"`
	Infrastructure Infrastructure `json:"infrastructure"`
	Timeframe      Timeframe      `json:"timeframe"`
}

// NewCostInput 默认输入
func NewCostInput() CostInput {
	return CostInput{
		ESP:       DefaultESP,
		Users:     1,
		Sequencer: DefaultSequencer,
		Timeframe: Monthly,
	}
}

// BreakdownRow 基础设施费用明细
type BreakdownRow struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Percentage string  `json:"percentage"`
}

// CostResult 成本计算结果
type CostResult struct {
	ESP            string         `json:"esp"`
	Sequencer      string         `json:"sequencer"`
	ESPTotal       float64        `json:"espTotal"`
	MonthlyTotal   float64        `json:"monthlyTotal"`
	Timeframe      Timeframe      `json:"timeframe"`
	Months         int            `json:"months"`
	TimeframeTotal float64        `json:"timeframeTotal"`
	Breakdown      []BreakdownRow `json:"breakdown"`
}

// LookupESP 按名称查找服务商
func LookupESP(name string) (ESP, bool) {
	for _, e := range ESPs {
		if e.Name == name {
			return e, true
		}
	}
	return ESP{}, false
}

// LookupSequencer 按名称查找发信工具
func LookupSequencer(name string) (Sequencer, bool) {
	for _, s := range Sequencers {
		if s.Name == name {
			return s, true
		}
	}
	return Sequencer{}, false
}

// Cost 计算月度和周期总成本
func Cost(in CostInput) (CostResult, error) {
	if _, ok := LookupESP(in.ESP); !ok {
		return CostResult{}, fmt.Errorf("%w: %s", ErrUnknownESP, in.ESP)
	}
	if _, ok := LookupSequencer(in.Sequencer); !ok {
		return CostResult{}, fmt.Errorf("%w: %s", ErrUnknownSequencer, in.Sequencer)
	}

	tf, err := ParseTimeframe(string(in.Timeframe))
	if err != nil {
		return CostResult{}, err
	}

	if in.Users < 1 {
		return CostResult{}, fmt.Errorf("%w: users 至少为 1", ErrOutOfRange)
	}
	infra := in.Infrastructure
	for _, v := range []float64{in.CostPerUser, in.SequencerCost, infra.Servers, infra.Security, infra.Maintenance, infra.Backup, infra.Other} {
		if v < 0 {
			return CostResult{}, fmt.Errorf("%w: 费用不能为负数", ErrOutOfRange)
		}
	}

	espTotal := in.CostPerUser * float64(in.Users)
	monthly := espTotal + in.SequencerCost + infra.Total()

	return CostResult{
		ESP:            in.ESP,
		Sequencer:      in.Sequencer,
		ESPTotal:       espTotal,
		MonthlyTotal:   monthly,
		Timeframe:      tf,
		Months:         tf.Months(),
		TimeframeTotal: monthly * float64(tf.Months()),
		Breakdown: []BreakdownRow{
			breakdownRow("Servers", infra.Servers, monthly),
			breakdownRow("Security", infra.Security, monthly),
			breakdownRow("Maintenance", infra.Maintenance, monthly),
			breakdownRow("Backup", infra.Backup, monthly),
			breakdownRow("Other", infra.Other, monthly),
		},
	}, nil
}

// breakdownRow 占比保留一位小数，总额为 0 时为 "0"
func breakdownRow(name string, value, total float64) BreakdownRow {
	pct := "0"
	if total != 0 {
		pct = strconv.FormatFloat(value/total*100, 'f', 1, 64)
	}
	return BreakdownRow{Name: name, Value: value, Percentage: pct}
}
