// Package gemini calls the Gemini generative API to prefill onboarding
// fields. Every operation degrades to a deterministic fallback derived from
// its input, so the flow works without network access or an API key.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/smallbiznis/bbf-onboarding/internal/domain"
)

// Enricher describes the optional enrichment capability used by the
// onboarding flow.
type Enricher interface {
	// AutofillCompany suggests a company profile for the given email domain.
	AutofillCompany(ctx context.Context, emailDomain string) (domain.Company, error)
	// GenerateGoals suggests short and long term goals for the company.
	GenerateGoals(ctx context.Context, company domain.Company) (domain.Goals, error)
}

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Client is the live HTTP implementation. It never returns an error for a
// failed enrichment; any transport, status, or decode failure yields the
// same fallback the Stub produces. The injected http.Client owns the request
// deadline; no extra timeout is layered here.
type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
	logger     *zap.Logger
}

var _ Enricher = (*Client)(nil)

// NewClient constructs the live Gemini client.
func NewClient(httpClient *http.Client, apiKey, model, baseURL string, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{httpClient: httpClient, apiKey: apiKey, model: model, baseURL: baseURL, logger: logger}
}

// generateContent request/response wire types, trimmed to the fields used.
type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

var companySchema = json.RawMessage(`{
	"type": "OBJECT",
	"properties": {
		"company_name": {"type": "STRING"},
		"website": {"type": "STRING"},
		"domains": {"type": "ARRAY", "items": {"type": "STRING"}},
		"pricing_model": {"type": "STRING", "description": "Must be one of: Subscription, Usage-based, Enterprise, Freemium, Other"},
		"services": {"type": "STRING"},
		"policies": {"type": "STRING"}
	},
	"required": ["company_name", "website", "domains", "pricing_model", "services", "policies"]
}`)

var goalsSchema = json.RawMessage(`{
	"type": "OBJECT",
	"properties": {
		"short_term": {"type": "STRING", "description": "A paragraph outlining 2-3 specific short term objectives."},
		"long_term": {"type": "STRING", "description": "A paragraph outlining the long term strategic vision."}
	},
	"required": ["short_term", "long_term"]
}`)

// AutofillCompany asks Gemini for a company profile grounded on the email
// domain, falling back to FallbackCompany on any failure.
func (c *Client) AutofillCompany(ctx context.Context, emailDomain string) (domain.Company, error) {
	prompt := fmt.Sprintf("Search and provide detailed company profile information for the domain %q. Use your grounding tools.", emailDomain)

	var profile struct {
		CompanyName  string   `json:"company_name"`
		Website      string   `json:"website"`
		Domains      []string `json:"domains"`
		PricingModel string   `json:"pricing_model"`
		Services     string   `json:"services"`
		Policies     string   `json:"policies"`
	}
	if err := c.generate(ctx, prompt, companySchema, &profile); err != nil {
		c.logger.Warn("company autofill failed, using fallback",
			zap.String("domain", emailDomain), zap.Error(err))
		return FallbackCompany(emailDomain), nil
	}

	pricing, err := domain.ParsePricingModel(profile.PricingModel)
	if err != nil || profile.CompanyName == "" || profile.Website == "" {
		c.logger.Warn("company autofill returned unusable profile, using fallback",
			zap.String("domain", emailDomain))
		return FallbackCompany(emailDomain), nil
	}

	return domain.Company{
		CompanyName:  profile.CompanyName,
		Website:      profile.Website,
		Domains:      profile.Domains,
		Policies:     profile.Policies,
		PricingModel: pricing,
		Services:     profile.Services,
	}, nil
}

// GenerateGoals asks Gemini for goal suggestions based on the company
// profile, falling back to FallbackGoals on any failure.
func (c *Client) GenerateGoals(ctx context.Context, company domain.Company) (domain.Goals, error) {
	prompt := fmt.Sprintf(`Based on the following company profile, suggest high-impact short-term (3-6 months) and long-term (1-3 years) business initiative goals for an automated business agent (bot).

Company Name: %s
Services: %s
Pricing Model: %s
Domains: %s

The goals should be strategic, partnership-oriented, and suitable for a B2B automated matching platform.`,
		company.CompanyName, company.Services, company.PricingModel, strings.Join(company.Domains, ", "))

	var goals domain.Goals
	if err := c.generate(ctx, prompt, goalsSchema, &goals); err != nil {
		c.logger.Warn("goal generation failed, using fallback",
			zap.String("company", company.CompanyName), zap.Error(err))
		return FallbackGoals(), nil
	}
	if goals.ShortTerm == "" && goals.LongTerm == "" {
		return FallbackGoals(), nil
	}
	return goals, nil
}

// generate performs one constrained generateContent call and decodes the
// JSON text of the first candidate into out.
func (c *Client) generate(ctx context.Context, prompt string, schema json.RawMessage, out any) error {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
		},
	}
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("generate request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("generate failed: status=%d", resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("empty response")
	}

	text := decoded.Candidates[0].Content.Parts[0].Text
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("decode candidate text: %w", err)
	}
	return nil
}

// Stub is the deterministic implementation used in tests and when no API key
// is configured.
type Stub struct{}

var _ Enricher = (*Stub)(nil)

// NewStub constructs the deterministic enricher.
func NewStub() *Stub {
	return &Stub{}
}

func (*Stub) AutofillCompany(_ context.Context, emailDomain string) (domain.Company, error) {
	return FallbackCompany(emailDomain), nil
}

func (*Stub) GenerateGoals(context.Context, domain.Company) (domain.Goals, error) {
	return FallbackGoals(), nil
}

// FallbackCompany derives a usable company profile from the email domain
// alone. Deterministic given the input.
func FallbackCompany(emailDomain string) domain.Company {
	label := emailDomain
	if i := strings.Index(emailDomain, "."); i > 0 {
		label = emailDomain[:i]
	}
	return domain.Company{
		CompanyName:  strings.ToUpper(label) + " Corp",
		Website:      "https://" + emailDomain,
		Domains:      []string{emailDomain},
		Policies:     "Standard enterprise security and data privacy policies apply.",
		PricingModel: domain.PricingEnterprise,
		Services:     "Advanced AI solutions and B2B automation tools.",
	}
}

// FallbackGoals returns the fixed goal suggestions.
func FallbackGoals() domain.Goals {
	return domain.Goals{
		ShortTerm: "Identify 5 new strategic distribution partners and reduce operational costs by 15% through automated procurement matches.",
		LongTerm:  "Establish a dominant presence in the global B2B ecosystem by automating 80% of partnership discovery and initial deal structuring.",
	}
}
