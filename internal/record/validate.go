package record

import "regexp"

var (
	domainPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9\-_.]+[A-Za-z0-9]$`)
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// 字段校验提示，原样返回给前端
const (
	MsgDomainRequired = "Domain is required"
	MsgDomainInvalid  = "Invalid domain format"
	MsgEmailRequired  = "Aggregate report email is required"
	MsgEmailInvalid   = "Invalid email format"
)

// FieldErrors 按字段的校验错误，空字符串表示通过
type FieldErrors struct {
	Domain string `json:"domain,omitempty"`
	Email  string `json:"email,omitempty"`
}

// OK 所有字段都通过校验
func (e FieldErrors) OK() bool {
	return e.Domain == "" && e.Email == ""
}

// Validate 校验域名，email 非 nil 时一并校验邮箱
func Validate(domain string, email *string) FieldErrors {
	var errs FieldErrors
	errs.Domain = ValidateDomain(domain)
	if email != nil {
		errs.Email = ValidateEmail(*email)
	}
	return errs
}

// ValidateDomain 返回域名的错误提示
func ValidateDomain(domain string) string {
	switch {
	case domain == "":
		return MsgDomainRequired
	case !domainPattern.MatchString(domain):
		return MsgDomainInvalid
	}
	return ""
}

// ValidateEmail 返回邮箱的错误提示
func ValidateEmail(email string) string {
	switch {
	case email == "":
		return MsgEmailRequired
	case !emailPattern.MatchString(email):
		return MsgEmailInvalid
	}
	return ""
}
