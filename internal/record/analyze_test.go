package record

import (
	"reflect"
	"strings"
	"testing"
)

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want SPFCheckResult
	}{
		{
			name: "单个 include",
			raw:  "v=spf1 include:_spf.google.com ~all",
			want: SPFCheckResult{
				IsValid:    true,
				Record:     "v=spf1 include:_spf.google.com ~all",
				Lookups:    1,
				Mechanisms: []string{"~all"},
				Includes:   []string{"_spf.google.com"},
				IPs:        []string{},
				Errors:     []string{},
				Warnings:   []string{},
			},
		},
		{
			name: "无 SPF 记录",
			raw:  "no spf here",
			want: SPFCheckResult{
				Mechanisms: []string{},
				Includes:   []string{},
				IPs:        []string{},
				Errors:     []string{MsgNoRecord},
				Warnings:   []string{},
			},
		},
		{
			name: "多行取第一条 SPF",
			raw:  "google-site-verification=abc\n  v=spf1 mx a ip4:192.0.2.0/24 ip6:2001:db8::/32 -all\nv=spf1 +all",
			want: SPFCheckResult{
				IsValid:    true,
				Record:     "  v=spf1 mx a ip4:192.0.2.0/24 ip6:2001:db8::/32 -all",
				Mechanisms: []string{"mx", "a", "-all"},
				Includes:   []string{},
				IPs:        []string{"ip4:192.0.2.0/24", "ip6:2001:db8::/32"},
				Errors:     []string{},
				Warnings:   []string{},
			},
		},
		{
			name: "缺少 all",
			raw:  "v=spf1  mx   redirect=_spf.example.com",
			want: SPFCheckResult{
				IsValid:    true,
				Record:     "v=spf1  mx   redirect=_spf.example.com",
				Mechanisms: []string{"mx"},
				Includes:   []string{},
				IPs:        []string{},
				Errors:     []string{},
				Warnings:   []string{MsgMissingAll},
			},
		},
		{
			name: "+all 警告",
			raw:  "v=spf1 a:mail.example.com +all",
			want: SPFCheckResult{
				IsValid:    true,
				Record:     "v=spf1 a:mail.example.com +all",
				Mechanisms: []string{"+all"},
				Includes:   []string{},
				IPs:        []string{},
				Errors:     []string{},
				Warnings:   []string{MsgPlusAll},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Analyze(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Analyze() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAnalyzeTooManyLookups(t *testing.T) {
	var b strings.Builder
	b.WriteString("v=spf1")
	for i := 0; i < 11; i++ {
		b.WriteString(" include:_spf")
		b.WriteByte(byte('a' + i))
		b.WriteString(".example.com")
	}
	b.WriteString(" +all")

	got := Analyze(b.String())
	if !got.IsValid {
		t.Fatal("警告不应使记录无效")
	}
	if got.Lookups != 11 {
		t.Errorf("Lookups = %d, want 11", got.Lookups)
	}
	want := []string{MsgTooManyLookup, MsgPlusAll}
	if !reflect.DeepEqual(got.Warnings, want) {
		t.Errorf("Warnings = %v, want %v", got.Warnings, want)
	}
}

func TestAnalyzeTenLookupsNoWarning(t *testing.T) {
	record := "v=spf1" + strings.Repeat(" include:x.example.com", 10) + " ~all"
	got := Analyze(record)
	if len(got.Warnings) != 0 {
		t.Errorf("Warnings = %v, want 空", got.Warnings)
	}
}

func TestFailedCheckResult(t *testing.T) {
	got := FailedCheckResult()
	if got.IsValid || got.Record != "" || got.Lookups != 0 {
		t.Errorf("FailedCheckResult() = %+v", got)
	}
	if len(got.Errors) != 1 || got.Errors[0] != MsgLookupFailed {
		t.Errorf("Errors = %v", got.Errors)
	}
	if got.Mechanisms == nil || got.Includes == nil || got.IPs == nil || got.Warnings == nil {
		t.Error("集合字段应为空切片而不是 nil")
	}
}
