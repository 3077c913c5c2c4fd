// Package bootstrap populates demo/sample data before any real traffic.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smallbiznis/bbf-onboarding/internal/config"
	"github.com/smallbiznis/bbf-onboarding/internal/domain"
	"github.com/smallbiznis/bbf-onboarding/internal/repository"
)

// SeedSampleAgents loads the sample companies into an empty agent store at
// startup. Sample ids carry the agt_sample_ prefix, so they can never
// collide with generated ids.
func SeedSampleAgents(lc fx.Lifecycle, cfg config.Config, agents repository.AgentRepository, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return seedSampleAgents(ctx, cfg, agents, logger)
		},
	})
}

func seedSampleAgents(ctx context.Context, cfg config.Config, agents repository.AgentRepository, logger *zap.Logger) error {
	if !cfg.SeedSampleData {
		return nil
	}

	empty, err := agents.IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("seed check: %w", err)
	}
	if !empty {
		return nil
	}

	samples := SampleAgents()
	if err := agents.Seed(ctx, samples); err != nil {
		return fmt.Errorf("seed sample agents: %w", err)
	}

	if logger != nil {
		logger.Info("sample agents seeded", zap.Int("count", len(samples)))
	}
	return nil
}

// SampleAgents returns the demo companies shown before any real signups.
func SampleAgents() []domain.StoredAgent {
	now := time.Now().UTC()
	sample := func(n int, payload domain.OnboardingPayload) domain.StoredAgent {
		return domain.StoredAgent{
			ID:        fmt.Sprintf("agt_sample_%03d", n),
			Status:    domain.AgentStatusActive,
			CreatedAt: now,
			Payload:   payload,
		}
	}

	return []domain.StoredAgent{
		sample(1, domain.OnboardingPayload{
			User: domain.User{FirstName: "Jane", LastName: "Smith", Email: "jane@acmecorp.com"},
			Company: domain.Company{
				CompanyName:  "Acme Corp",
				EIN:          "12-3456789",
				Website:      "https://acmecorp.com",
				Domains:      []string{"logistics", "supply-chain"},
				Policies:     "Standard enterprise security.",
				PricingModel: domain.PricingEnterprise,
				Services:     "B2B logistics and supply chain automation.",
			},
			Goals: domain.Goals{ShortTerm: "Scale EMEA operations.", LongTerm: "Market leadership in logistics AI."},
		}),
		sample(2, domain.OnboardingPayload{
			User: domain.User{FirstName: "John", LastName: "Doe", Email: "john@techflow.io"},
			Company: domain.Company{
				CompanyName:  "TechFlow",
				Website:      "https://techflow.io",
				Domains:      []string{"saas", "automation"},
				Policies:     "Privacy-first, SOC2.",
				PricingModel: domain.PricingSubscription,
				Services:     "SaaS automation and workflow tools.",
			},
			Goals: domain.Goals{ShortTerm: "Add 50 enterprise customers.", LongTerm: "Global SaaS platform."},
		}),
		sample(3, domain.OnboardingPayload{
			User: domain.User{FirstName: "Alex", LastName: "Lee", Email: "alex@datawise.com"},
			Company: domain.Company{
				CompanyName:  "DataWise",
				EIN:          "98-7654321",
				Website:      "https://datawise.com",
				Domains:      []string{"data", "analytics"},
				Policies:     "GDPR compliant, data residency options.",
				PricingModel: domain.PricingUsageBased,
				Services:     "Analytics and BI platforms.",
			},
			Goals: domain.Goals{ShortTerm: "Launch API tier.", LongTerm: "Embedded analytics everywhere."},
		}),
		sample(4, domain.OnboardingPayload{
			User: domain.User{FirstName: "Sam", LastName: "Kim", Email: "sam@cloudnine.dev"},
			Company: domain.Company{
				CompanyName:  "CloudNine",
				Website:      "https://cloudnine.dev",
				Domains:      []string{"cloud", "infrastructure"},
				Policies:     "ISO 27001.",
				PricingModel: domain.PricingFreemium,
				Services:     "Cloud infrastructure and DevOps tools.",
			},
			Goals: domain.Goals{ShortTerm: "Grow free tier adoption.", LongTerm: "Multi-cloud standard."},
		}),
		sample(5, domain.OnboardingPayload{
			User: domain.User{FirstName: "Jordan", LastName: "Taylor", Email: "jordan@nexuspartners.com"},
			Company: domain.Company{
				CompanyName:  "Nexus Partners",
				EIN:          "11-2233445",
				Website:      "https://nexuspartners.com",
				Domains:      []string{"consulting", "integration"},
				Policies:     "Confidentiality and SLAs.",
				PricingModel: domain.PricingEnterprise,
				Services:     "Integration consulting and implementation.",
			},
			Goals: domain.Goals{ShortTerm: "Partner with 3 major vendors.", LongTerm: "Preferred integration partner."},
		}),
	}
}
