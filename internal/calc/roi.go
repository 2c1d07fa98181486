package calc

import (
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// MaxProspects 潜在客户数上限
const MaxProspects = 50000

// ROIInput ROI 计算输入，比率为百分数
type ROIInput struct {
	Prospects int     `json:"prospects"`
	OpenRate  float64 `json:"openRate"`
	ReplyRate float64 `json:"replyRate"`
	CloseRate float64 `json:"closeRate"`
	DealValue float64 `json:"dealValue"`
}

// NewROIInput 默认输入
func NewROIInput() ROIInput {
	return ROIInput{
		Prospects: 5000,
		OpenRate:  75,
		ReplyRate: 12,
		CloseRate: 35,
		DealValue: 400,
	}
}

// ROIResult ROI 计算结果
type ROIResult struct {
	OpenedEmails    int     `json:"openedEmails"`
	PositiveReplies int     `json:"positiveReplies"`
	ClosedDeals     int     `json:"closedDeals"`
	ExpectedRevenue float64 `json:"expectedRevenue"`
	ConversionRate  string  `json:"conversionRate"`
	Summary         string  `json:"summary"`
}

// Validate 检查输入范围
func (in ROIInput) Validate() error {
	if in.Prospects < 0 || in.Prospects > MaxProspects {
		return fmt.Errorf("%w: prospects 必须在 0 到 %d 之间", ErrOutOfRange, MaxProspects)
	}
	for name, rate := range map[string]float64{
		"openRate":  in.OpenRate,
		"replyRate": in.ReplyRate,
		"closeRate": in.CloseRate,
	} {
		if rate < 0 || rate > 100 {
			return fmt.Errorf("%w: %s 必须在 0 到 100 之间", ErrOutOfRange, name)
		}
	}
	if in.DealValue < 0 {
		return fmt.Errorf("%w: dealValue 不能为负数", ErrOutOfRange)
	}
	return nil
}

// ROI 按漏斗逐级取整计算成交数和收入
func ROI(in ROIInput) (ROIResult, error) {
	if err := in.Validate(); err != nil {
		return ROIResult{}, err
	}

	opened := roundHalfUp(float64(in.Prospects) * in.OpenRate / 100)
	replies := roundHalfUp(float64(opened) * in.ReplyRate / 100)
	deals := roundHalfUp(float64(replies) * in.CloseRate / 100)
	revenue := float64(deals) * in.DealValue

	conversion := "0.00"
	if in.Prospects > 0 {
		conversion = strconv.FormatFloat(float64(deals)/float64(in.Prospects)*100, 'f', 2, 64)
	}

	p := message.NewPrinter(language.English)
	summary := p.Sprintf(
		"Based on your campaign metrics, you can expect to generate $%v in revenue from %d closed deals, with an average deal value of $%v. This represents a %s%% overall conversion rate from initial prospects.",
		number.Decimal(revenue), deals, number.Decimal(in.DealValue, number.NoSeparator()), conversion,
	)

	return ROIResult{
		OpenedEmails:    opened,
		PositiveReplies: replies,
		ClosedDeals:     deals,
		ExpectedRevenue: revenue,
		ConversionRate:  conversion,
		Summary:         summary,
	}, nil
}

// roundHalfUp 非负数四舍五入，0.5 进位
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
