// Package validate holds the pure field validation rules used by the
// onboarding flow. Nothing here has side effects.
package validate

import (
	"regexp"
	"strings"
)

// Kind classifies a validation failure.
type Kind string

const (
	KindRequired      Kind = "required"
	KindInvalidFormat Kind = "invalid_format"
	KindFreeDomain    Kind = "free_domain_rejected"
)

// Message returns the user-facing text for the failure kind.
func (k Kind) Message() string {
	switch k {
	case KindInvalidFormat:
		return "Invalid email format"
	case KindFreeDomain:
		return "Please use a business email"
	default:
		return "Required"
	}
}

// freeDomains is the fixed denylist of consumer email providers that are not
// acceptable for business signup.
var freeDomains = map[string]struct{}{
	"gmail.com":      {},
	"yahoo.com":      {},
	"hotmail.com":    {},
	"outlook.com":    {},
	"icloud.com":     {},
	"aol.com":        {},
	"protonmail.com": {},
	"me.com":         {},
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email checks the address for a plausible local@domain.tld shape and then
// rejects consumer provider domains. The zero Kind means the email passed.
func Email(email string) (Kind, bool) {
	if !emailPattern.MatchString(email) {
		return KindInvalidFormat, false
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	if _, banned := freeDomains[strings.ToLower(domain)]; banned {
		return KindFreeDomain, false
	}
	return "", true
}

// Required reports a KindRequired entry for every empty mandatory field.
// Field values are considered empty after trimming whitespace.
func Required(fields map[string]string) map[string]Kind {
	errs := make(map[string]Kind)
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			errs[name] = KindRequired
		}
	}
	return errs
}
