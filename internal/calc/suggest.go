package calc

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// MaxSuggestions 单次最多生成的建议数
const MaxSuggestions = 100

// ErrEmptyDomain 主域名为空
var ErrEmptyDomain = errors.New("主域名不能为空")

// 组合用词
var (
	prefixes          = []string{"try", "get", "hey", "hi", "lab", "join", "meet", "my", "your"}
	businessTerms     = []string{"works", "hub", "project", "pro", "team"}
	actionWords       = []string{"explore", "build", "grow", "start", "reach", "check"}
	techFocused       = []string{"design", "made", "tech", "app", "digital"}
	modifiers         = []string{"easy", "fast", "smart", "next", "plus"}
	timeRelated       = []string{"now", "today", "24"}
	qualityIndicators = []string{"prime", "elite", "top"}
)

// SuggestionMode 组合方式
type SuggestionMode string

const (
	ModeMixed  SuggestionMode = "mixed"
	ModePrefix SuggestionMode = "prefix"
	ModeSuffix SuggestionMode = "suffix"
)

// ParseSuggestionMode 空字符串视为 mixed
func ParseSuggestionMode(s string) (SuggestionMode, error) {
	switch SuggestionMode(s) {
	case "", ModeMixed:
		return ModeMixed, nil
	case ModePrefix:
		return ModePrefix, nil
	case ModeSuffix:
		return ModeSuffix, nil
	}
	return "", fmt.Errorf("无效的组合方式: %s", s)
}

// Suggestion 一个备用域名
type Suggestion struct {
	Name string `json:"name"`
	Type string `json:"type"` // Prefix, Suffix
}

// Intner 随机数来源，*rand.Rand 满足该接口
type Intner interface {
	Intn(n int) int
}

// Suggester 备用域名生成器，可以被多个 goroutine 共用
type Suggester struct {
	mu  sync.Mutex // 保护 rng
	rng Intner
}

// NewSuggester rng 为 nil 时使用基于当前时间的随机源
func NewSuggester(rng Intner) *Suggester {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Suggester{rng: rng}
}

// Terms 全部组合用词
func Terms() []string {
	var all []string
	for _, group := range [][]string{prefixes, businessTerms, actionWords, techFocused, modifiers, timeRelated, qualityIndicators} {
		all = append(all, group...)
	}
	return all
}

// BaseName 去掉公共后缀和子域名，返回可注册部分的主体，例如 mail.coldicp.co.uk 返回 coldicp
func BaseName(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimSuffix(domain, ".")
	if !strings.Contains(domain, ".") {
		return domain
	}

	etld1, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		// 本身就是公共后缀，只去掉最后一段
		return domain[:strings.LastIndex(domain, ".")]
	}
	suffix, _ := publicsuffix.PublicSuffix(etld1)
	return strings.TrimSuffix(etld1, "."+suffix)
}

// Suggest 生成不重复的 .com 备用域名。count 限制在 1 到 100，
// 可组合的名称不足时返回全部。
func (s *Suggester) Suggest(domain string, count int, mode SuggestionMode) ([]Suggestion, error) {
	base := BaseName(domain)
	if base == "" {
		return nil, ErrEmptyDomain
	}
	count = max(1, min(count, MaxSuggestions))

	var candidates []Suggestion
	seen := make(map[string]bool)
	add := func(name, typ string) {
		if !seen[name] {
			seen[name] = true
			candidates = append(candidates, Suggestion{Name: name, Type: typ})
		}
	}
	for _, term := range Terms() {
		if mode != ModeSuffix {
			add(term+base+".com", "Prefix")
		}
		if mode != ModePrefix {
			add(base+term+".com", "Suffix")
		}
	}

	// 部分洗牌，只需要前 count 个
	n := min(count, len(candidates))
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		j := i + s.rng.Intn(len(candidates)-i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}

	return candidates[:n], nil
}
