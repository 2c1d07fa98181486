package record

import (
	"strings"
	"testing"
)

func TestBuildSPF(t *testing.T) {
	tests := []struct {
		name   string
		record SPFRecord
		want   string
	}{
		{
			name:   "默认状态",
			record: DefaultSPFRecord(),
			want:   "v=spf1 mx a include:spf.protection.outlook.com ~all",
		},
		{
			name: "裸地址补 /32",
			record: SPFRecord{
				IPs: []string{"1.2.3.4", "1.2.3.0/24"},
			},
			want: "v=spf1 ip4:1.2.3.4/32 ip4:1.2.3.0/24 ~all",
		},
		{
			name: "IPv6 仍以 ip4 输出",
			record: SPFRecord{
				IPs: []string{"2001:db8::1"},
			},
			want: "v=spf1 ip4:2001:db8::1/32 ~all",
		},
		{
			name:   "空记录",
			record: SPFRecord{},
			want:   "v=spf1 ~all",
		},
		{
			name: "完整顺序",
			record: SPFRecord{
				Includes:   []string{"_spf.google.com", "sendgrid.net"},
				IPs:        []string{"10.0.0.1"},
				Mechanisms: []Mechanism{MechanismA, MechanismPTR},
			},
			want: "v=spf1 a ptr include:_spf.google.com include:sendgrid.net ip4:10.0.0.1/32 ~all",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSPF(tt.record)
			if got != tt.want {
				t.Errorf("BuildSPF() = %q, want %q", got, tt.want)
			}
			if !strings.HasPrefix(got, "v=spf1") || !strings.HasSuffix(got, "~all") {
				t.Errorf("BuildSPF() = %q, 应以 v=spf1 开头并以 ~all 结尾", got)
			}
		})
	}
}

func TestSPFRecordEditing(t *testing.T) {
	r := DefaultSPFRecord()

	r.ToggleMechanism(MechanismMX)
	r.ToggleMechanism(MechanismPTR)
	if got := BuildSPF(r); got != "v=spf1 a ptr include:spf.protection.outlook.com ~all" {
		t.Errorf("ToggleMechanism 后 BuildSPF() = %q", got)
	}

	r.ToggleInclude("mailgun.org")
	r.ToggleInclude("spf.protection.outlook.com")
	if len(r.Includes) != 1 || r.Includes[0] != "mailgun.org" {
		t.Errorf("Includes = %v, want [mailgun.org]", r.Includes)
	}

	p, ok := LookupProvider("Google Workspace")
	if !ok {
		t.Fatal("LookupProvider(Google Workspace) 未找到")
	}
	r.SelectProvider(p)
	if len(r.Includes) != 1 || r.Includes[0] != "_spf.google.com" {
		t.Errorf("Includes = %v, want [_spf.google.com]", r.Includes)
	}

	r.AddIP("192.0.2.1")
	r.AddIP("192.0.2.1")
	r.AddIP("")
	if len(r.IPs) != 1 {
		t.Errorf("IPs = %v, want 1 项", r.IPs)
	}
}

func TestToggleDoesNotAliasDefaults(t *testing.T) {
	a := DefaultSPFRecord()
	b := a
	b.ToggleMechanism(MechanismMX)

	if len(a.Mechanisms) != 2 || a.Mechanisms[0] != MechanismMX {
		t.Errorf("原记录被修改: %v", a.Mechanisms)
	}
}

func TestLookupProvider(t *testing.T) {
	if p, ok := LookupProvider("sendgrid.net"); !ok || p.Label != "SendGrid" {
		t.Errorf("LookupProvider(sendgrid.net) = %v, %v", p, ok)
	}
	if _, ok := LookupProvider("unknown.example"); ok {
		t.Error("LookupProvider(unknown.example) 不应找到")
	}
}
