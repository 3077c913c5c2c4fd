// Package flow drives the onboarding wizard: a strictly linear sequence of
// steps with validation gating each transition. The session owns the
// transient form state and discards it on restart; durable records belong to
// the repositories behind the backend service.
package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/smallbiznis/bbf-onboarding/internal/domain"
	"github.com/smallbiznis/bbf-onboarding/internal/validate"
)

// Step identifies a position in the onboarding sequence.
type Step int

const (
	StepSignUp Step = iota
	StepVerifyOTP
	StepCompanyInfo
	StepGoals
	StepReview
	StepSuccess
)

var stepLabels = [...]string{"Sign Up", "Verify", "Company Info", "Goals", "Review", "Success"}

func (s Step) String() string {
	if s < StepSignUp || s > StepSuccess {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return stepLabels[s]
}

// Next returns the successor step. The second result is false for the
// terminal step. There is no backward transition; Restart is the only way
// back.
func (s Step) Next() (Step, bool) {
	if s >= StepSuccess {
		return StepSuccess, false
	}
	return s + 1, true
}

// ErrStepOrder is returned when an operation is invoked outside the step it
// belongs to.
var ErrStepOrder = errors.New("operation not allowed in current step")

// Backend is the external side of the flow: signup, verification, and final
// persistence. Implemented by service.OnboardingService.
type Backend interface {
	Signup(ctx context.Context, firstName, lastName, email string) (domain.User, error)
	VerifyOTP(ctx context.Context, email, code string) error
	CreateAgent(ctx context.Context, payload domain.OnboardingPayload) (domain.StoredAgent, error)
}

// Enricher is the optional autofill capability. Implementations fall back to
// deterministic values instead of failing, so enrichment errors never block
// the flow.
type Enricher interface {
	AutofillCompany(ctx context.Context, emailDomain string) (domain.Company, error)
	GenerateGoals(ctx context.Context, company domain.Company) (domain.Goals, error)
}

// CompanyForm carries the raw company-info inputs. Domains is the
// comma-separated free-text field as typed.
type CompanyForm struct {
	CompanyName  string
	EIN          string
	Website      string
	Domains      string
	Policies     string
	PricingModel domain.PricingModel
	Services     string
}

// Session is one in-progress onboarding. It is not safe for concurrent use;
// a session advances strictly sequentially.
type Session struct {
	step    Step
	user    domain.User
	company domain.Company
	goals   domain.Goals
	agentID string

	backend  Backend
	enricher Enricher
	logger   *zap.Logger
}

// NewSession starts a fresh onboarding session at the sign-up step.
func NewSession(backend Backend, enricher Enricher, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{backend: backend, enricher: enricher, logger: logger}
}

// Step reports the current position.
func (s *Session) Step() Step { return s.step }

// AgentID returns the identifier assigned at submission, "" before success.
func (s *Session) AgentID() string { return s.agentID }

// Company returns the company state collected so far.
func (s *Session) Company() domain.Company { return s.company }

// Goals returns the goals state collected so far.
func (s *Session) Goals() domain.Goals { return s.goals }

func (s *Session) advance() {
	next, ok := s.step.Next()
	if ok {
		s.step = next
	}
}

// SubmitSignUp validates the name and email fields and, when they pass,
// triggers the signup side effect and advances to verification. Field errors
// keep the session in place and the side effect is not invoked.
func (s *Session) SubmitSignUp(ctx context.Context, firstName, lastName, email string) (map[string]string, error) {
	if s.step != StepSignUp {
		return nil, ErrStepOrder
	}

	fields := make(map[string]string)
	if kind, ok := validate.Email(email); !ok {
		fields["email"] = kind.Message()
	}
	for name, kind := range validate.Required(map[string]string{
		"first_name": firstName,
		"last_name":  lastName,
	}) {
		fields[name] = kind.Message()
	}
	if len(fields) > 0 {
		return fields, nil
	}

	user, err := s.backend.Signup(ctx, firstName, lastName, email)
	if err != nil {
		s.logger.Warn("signup failed", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	s.user = user
	s.advance()
	return nil, nil
}

// SubmitOTP verifies the one-time code. A mismatch leaves the session in the
// verification step.
func (s *Session) SubmitOTP(ctx context.Context, code string) error {
	if s.step != StepVerifyOTP {
		return ErrStepOrder
	}
	if err := s.backend.VerifyOTP(ctx, s.user.Email, code); err != nil {
		return err
	}
	s.user.Verified = true
	s.advance()
	return nil
}

// AutofillCompany asks the enricher to prefill the company fields from the
// signup email domain. All returned fields overwrite the current draft
// except EIN, which is always blanked to force manual entry. Enrichment
// failure leaves the draft untouched and is never surfaced as an error.
func (s *Session) AutofillCompany(ctx context.Context) domain.Company {
	if s.step != StepCompanyInfo {
		return s.company
	}

	emailDomain := s.user.Email[strings.LastIndex(s.user.Email, "@")+1:]
	suggested, err := s.enricher.AutofillCompany(ctx, emailDomain)
	if err != nil {
		s.logger.Warn("company autofill failed", zap.Error(err))
		return s.company
	}

	suggested.EIN = ""
	s.company = suggested
	return s.company
}

// SubmitCompany requires a company name and website; the domains field is
// collapsed from its comma-separated form. On success the session advances
// to the goals step.
func (s *Session) SubmitCompany(ctx context.Context, form CompanyForm) (map[string]string, error) {
	if s.step != StepCompanyInfo {
		return nil, ErrStepOrder
	}

	fields := make(map[string]string)
	for name, kind := range validate.Required(map[string]string{
		"company_name": form.CompanyName,
		"website":      form.Website,
	}) {
		fields[name] = kind.Message()
	}
	if len(fields) > 0 {
		return fields, nil
	}

	pricing := form.PricingModel
	if pricing == "" {
		pricing = domain.PricingSubscription
	}
	s.company = domain.Company{
		CompanyName:  form.CompanyName,
		EIN:          form.EIN,
		Website:      form.Website,
		Domains:      domain.ParseDomainTags(form.Domains),
		Policies:     form.Policies,
		PricingModel: pricing,
		Services:     form.Services,
	}
	s.advance()
	return nil, nil
}

// GenerateGoals asks the enricher for goal suggestions based on the company
// draft and stores them. Failures leave the current goals untouched.
func (s *Session) GenerateGoals(ctx context.Context) domain.Goals {
	if s.step != StepGoals {
		return s.goals
	}
	suggested, err := s.enricher.GenerateGoals(ctx, s.company)
	if err != nil {
		s.logger.Warn("goal generation failed", zap.Error(err))
		return s.goals
	}
	s.goals = suggested
	return s.goals
}

// SubmitGoals stores the goals and advances to review. Goals have no
// required fields.
func (s *Session) SubmitGoals(_ context.Context, goals domain.Goals) error {
	if s.step != StepGoals {
		return ErrStepOrder
	}
	s.goals = goals
	s.advance()
	return nil
}

// Payload assembles the aggregate submitted at review time.
func (s *Session) Payload() domain.OnboardingPayload {
	return domain.OnboardingPayload{User: s.user, Company: s.company, Goals: s.goals}
}

// Submit hands the payload to the backend. On success the session reaches
// the terminal step carrying the assigned agent id; on failure it stays in
// review so the submission can be retried.
func (s *Session) Submit(ctx context.Context) (string, error) {
	if s.step != StepReview {
		return "", ErrStepOrder
	}

	agent, err := s.backend.CreateAgent(ctx, s.Payload())
	if err != nil {
		s.logger.Warn("agent creation failed", zap.Error(err))
		return "", err
	}

	s.agentID = agent.ID
	s.advance()
	return agent.ID, nil
}

// Restart discards all transient state and returns to the sign-up step. It
// is the only backward transition.
func (s *Session) Restart() {
	s.step = StepSignUp
	s.user = domain.User{}
	s.company = domain.Company{}
	s.goals = domain.Goals{}
	s.agentID = ""
}
