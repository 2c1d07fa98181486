package api

import (
	"errors"
	"net/http"
	"slices"

	"github.com/coldicp/mailtools/internal/calc"
	"github.com/coldicp/mailtools/internal/checker"
	"github.com/coldicp/mailtools/internal/logger"
	"github.com/coldicp/mailtools/internal/metrics"
	"github.com/coldicp/mailtools/internal/record"
	"github.com/gin-gonic/gin"
)

// dmarcRequest 未传的字段使用生成器默认值
type dmarcRequest struct {
	Domain            string   `json:"domain"`
	Policy            string   `json:"policy"`
	Percentage        *int     `json:"percentage"`
	RUA               *string  `json:"rua"` // 未传时为 dmarc@<domain>
	RUF               string   `json:"ruf"`
	SubdomainPolicy   string   `json:"subdomainPolicy"`
	SPFAlignment      string   `json:"spfAlignment"`
	DKIMAlignment     string   `json:"dkimAlignment"`
	ReportingInterval int      `json:"reportingInterval"`
	FailureOptions    []string `json:"failureOptions"`
}

// toPolicy 解析枚举字段
func (r dmarcRequest) toPolicy() (record.DMARCPolicy, error) {
	p := record.NewDMARCPolicy()
	p.SetDomain(r.Domain)
	if r.RUA != nil {
		p.RUA = *r.RUA
	}
	p.RUF = r.RUF

	var err error
	if p.Policy, err = record.ParsePolicy(r.Policy); err != nil {
		return p, err
	}
	if p.SubdomainPolicy, err = record.ParsePolicy(r.SubdomainPolicy); err != nil {
		return p, err
	}
	if p.SPFAlignment, err = record.ParseAlignment(r.SPFAlignment); err != nil {
		return p, err
	}
	if p.DKIMAlignment, err = record.ParseAlignment(r.DKIMAlignment); err != nil {
		return p, err
	}

	if r.Percentage != nil {
		p.SetPercentage(*r.Percentage)
	}
	p.SetReportingInterval(r.ReportingInterval)

	if r.FailureOptions != nil {
		p.FailureOptions = make([]record.FailureOption, 0, len(r.FailureOptions))
		for _, s := range r.FailureOptions {
			opt, err := record.ParseFailureOption(s)
			if err != nil {
				return p, err
			}
			p.FailureOptions = append(p.FailureOptions, opt)
		}
	}

	return p, nil
}

// generateDMARCHandler 生成 DMARC 记录
func generateDMARCHandler(m *metrics.Exporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dmarcRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}

		policy, err := req.toPolicy()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}

		if errs := record.Validate(policy.Domain, &policy.RUA); !errs.OK() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"errors": fieldErrorBody(errs, "rua"),
			})
			return
		}

		m.IncRecordsGenerated("dmarc")
		c.JSON(http.StatusOK, gin.H{
			"host":   record.HostLabel(policy.Domain),
			"record": record.BuildDMARC(policy),
			"policy": policy,
		})
	}
}

// spfRequest includes 和 mechanisms 未传时使用默认值，传空数组表示清空
type spfRequest struct {
	Domain     string    `json:"domain"`
	Provider   string    `json:"provider"`
	Includes   *[]string `json:"includes"`
	IPs        []string  `json:"ips"`
	Mechanisms *[]string `json:"mechanisms"`
}

func (r spfRequest) toRecord() (record.SPFRecord, error) {
	rec := record.DefaultSPFRecord()

	if r.Provider != "" {
		p, ok := record.LookupProvider(r.Provider)
		if !ok {
			return rec, errors.New("未知的服务商: " + r.Provider)
		}
		rec.SelectProvider(p)
	}
	if r.Includes != nil {
		rec.Includes = []string{}
		for _, inc := range *r.Includes {
			if inc != "" && !slices.Contains(rec.Includes, inc) {
				rec.ToggleInclude(inc)
			}
		}
	}
	if r.Mechanisms != nil {
		rec.Mechanisms = []record.Mechanism{}
		for _, s := range *r.Mechanisms {
			mech, err := record.ParseMechanism(s)
			if err != nil {
				return rec, err
			}
			if !slices.Contains(rec.Mechanisms, mech) {
				rec.ToggleMechanism(mech)
			}
		}
	}
	for _, ip := range r.IPs {
		rec.AddIP(ip)
	}

	return rec, nil
}

// generateSPFHandler 生成 SPF 记录
func generateSPFHandler(m *metrics.Exporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req spfRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}

		rec, err := req.toRecord()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}

		if errs := record.Validate(req.Domain, nil); !errs.OK() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"errors": fieldErrorBody(errs, ""),
			})
			return
		}

		m.IncRecordsGenerated("spf")
		c.JSON(http.StatusOK, gin.H{
			"host":   req.Domain,
			"record": record.BuildSPF(rec),
			"spf":    rec,
		})
	}
}

// listProvidersHandler 服务商目录
func listProvidersHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"providers": record.Providers,
	})
}

// checkSPFHandler 查询并分析域名的 SPF 记录。查询失败也返回 200 和失败结果。
func checkSPFHandler(ck *checker.Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		domain := c.Param("domain")

		result, errs := ck.Check(c.Request.Context(), domain)
		if !errs.OK() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"errors": fieldErrorBody(errs, ""),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"domain": domain,
			"result": result,
		})
	}
}

// catalogHandler 成本计算器的服务商和发信工具目录
func catalogHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"esps":       calc.ESPs,
		"sequencers": calc.Sequencers,
		"timeframes": []calc.Timeframe{calc.Monthly, calc.ThreeMonths, calc.SixMonths, calc.NineMonths, calc.Annual},
	})
}

// costHandler 成本计算
func costHandler(c *gin.Context) {
	in := calc.NewCostInput()
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	result, err := calc.Cost(in)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// roiHandler ROI 计算
func roiHandler(c *gin.Context) {
	in := calc.NewROIInput()
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	result, err := calc.ROI(in)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// suggestHandler 备用域名建议
func suggestHandler(s *calc.Suggester) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := struct {
			Domain string `json:"domain"`
			Count  int    `json:"count"`
			Mode   string `json:"mode"`
		}{Count: 10}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}

		mode, err := calc.ParseSuggestionMode(req.Mode)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}

		suggestions, err := s.Suggest(req.Domain, req.Count, mode)
		if err != nil {
			logger.DebugCtx(c.Request.Context()).Err(err).Str("domain", req.Domain).Msg("生成域名建议失败")
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"base":        calc.BaseName(req.Domain),
			"suggestions": suggestions,
		})
	}
}

// fieldErrorBody 只输出未通过的字段，emailKey 为邮箱字段在请求中的名称
func fieldErrorBody(errs record.FieldErrors, emailKey string) gin.H {
	body := gin.H{}
	if errs.Domain != "" {
		body["domain"] = errs.Domain
	}
	if errs.Email != "" && emailKey != "" {
		body[emailKey] = errs.Email
	}
	return body
}
