package domain

import (
	"fmt"
	"strings"
)

// PricingModel enumerates the pricing models a company can declare.
type PricingModel string

const (
	PricingSubscription PricingModel = "Subscription"
	PricingUsageBased   PricingModel = "Usage-based"
	PricingEnterprise   PricingModel = "Enterprise"
	PricingFreemium     PricingModel = "Freemium"
	PricingOther        PricingModel = "Other"
)

// PricingModels lists every valid pricing model in display order.
var PricingModels = []PricingModel{
	PricingSubscription,
	PricingUsageBased,
	PricingEnterprise,
	PricingFreemium,
	PricingOther,
}

// ParsePricingModel validates a raw pricing model string.
func ParsePricingModel(raw string) (PricingModel, error) {
	for _, pm := range PricingModels {
		if string(pm) == raw {
			return pm, nil
		}
	}
	return "", fmt.Errorf("unknown pricing model %q", raw)
}

// Valid reports whether the pricing model is one of the fixed enumeration.
func (p PricingModel) Valid() bool {
	_, err := ParsePricingModel(string(p))
	return err == nil
}

// Company holds the business context collected during onboarding.
type Company struct {
	CompanyName  string       `json:"company_name"`
	EIN          string       `json:"ein"`
	Website      string       `json:"website"`
	Domains      []string     `json:"domains"`
	Policies     string       `json:"policies"`
	PricingModel PricingModel `json:"pricing_model"`
	Services     string       `json:"services"`
}

// ParseDomainTags collapses user-entered comma-separated domain tags into a
// trimmed ordered sequence. Empty entries (for example from a trailing comma)
// are dropped.
func ParseDomainTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}
