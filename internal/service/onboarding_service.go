package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/smallbiznis/bbf-onboarding/internal/config"
	"github.com/smallbiznis/bbf-onboarding/internal/domain"
	"github.com/smallbiznis/bbf-onboarding/internal/repository"
	"github.com/smallbiznis/bbf-onboarding/internal/validate"
)

const otpLength = 6

// OnboardingService drives signup, verification, and agent creation.
type OnboardingService struct {
	users  repository.UserRepository
	agents repository.AgentRepository
	codes  repository.OTPStore
	cfg    config.Config
	logger *zap.Logger
	tracer trace.Tracer
}

// NewOnboardingService wires dependencies.
func NewOnboardingService(users repository.UserRepository, agents repository.AgentRepository, codes repository.OTPStore, cfg config.Config, logger *zap.Logger) *OnboardingService {
	return &OnboardingService{
		users:  users,
		agents: agents,
		codes:  codes,
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer("github.com/smallbiznis/bbf-onboarding/internal/service"),
	}
}

// Signup validates the signup fields, persists the unverified user, and
// issues a one-time code for the email.
func (s *OnboardingService) Signup(ctx context.Context, firstName, lastName, email string) (domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "OnboardingService.Signup")
	defer span.End()

	fields := make(map[string]string)
	for name, kind := range validate.Required(map[string]string{
		"first_name": firstName,
		"last_name":  lastName,
	}) {
		fields[name] = kind.Message()
	}
	if kind, ok := validate.Email(email); !ok {
		fields["email"] = kind.Message()
	}
	if len(fields) > 0 {
		return domain.User{}, newValidationError(fields)
	}

	user, err := s.users.Create(ctx, domain.User{
		FirstName:          firstName,
		LastName:           lastName,
		Email:              email,
		Verified:           false,
		VerificationMethod: domain.VerificationMethodOTP,
	})
	if err != nil {
		span.RecordError(err)
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	code := s.issueCode()
	if err := s.codes.SaveCode(ctx, email, code, s.cfg.OTPTTL); err != nil {
		span.RecordError(err)
		return domain.User{}, fmt.Errorf("issue otp: %w", err)
	}

	// No real delivery channel exists; the code is logged for operators.
	s.logger.Info("otp issued",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email),
		zap.Bool("demo_mode", s.cfg.DemoMode))
	if s.cfg.DemoMode {
		s.logger.Debug("demo otp code", zap.String("code", code))
	}

	return user, nil
}

// issueCode returns the fixed demo code in demo mode and a random 6-digit
// code otherwise.
func (s *OnboardingService) issueCode() string {
	if s.cfg.DemoMode {
		return s.cfg.DemoOTP
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return s.cfg.DemoOTP
	}
	n := binary.BigEndian.Uint64(buf[:]) % 1_000_000
	return fmt.Sprintf("%06d", n)
}

// VerifyOTP compares the submitted code against the code issued at signup
// time: exact length, case-sensitive, exact match. On success the user is
// marked verified and the code is consumed.
func (s *OnboardingService) VerifyOTP(ctx context.Context, email, code string) error {
	ctx, span := s.tracer.Start(ctx, "OnboardingService.VerifyOTP")
	defer span.End()

	invalid := newFlowError(CodeInvalidOTP, "Invalid OTP", http.StatusBadRequest)
	if len(code) != otpLength {
		return invalid
	}

	expected, err := s.codes.GetCode(ctx, email)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("load otp: %w", err)
	}
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(code)) != 1 {
		s.logger.Warn("otp mismatch", zap.String("email", email))
		return invalid
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		if err := s.users.MarkVerified(ctx, user.ID); err != nil {
			span.RecordError(err)
			return fmt.Errorf("mark verified: %w", err)
		}
	}

	if err := s.codes.DeleteCode(ctx, email); err != nil {
		span.RecordError(err)
	}

	s.logger.Info("email verified", zap.String("email", email))
	return nil
}

// CreateAgent persists the completed onboarding payload and returns the
// stored record with its freshly assigned id.
func (s *OnboardingService) CreateAgent(ctx context.Context, payload domain.OnboardingPayload) (domain.StoredAgent, error) {
	ctx, span := s.tracer.Start(ctx, "OnboardingService.CreateAgent")
	defer span.End()

	fields := make(map[string]string)
	for name, kind := range validate.Required(map[string]string{
		"company_name": payload.Company.CompanyName,
		"website":      payload.Company.Website,
	}) {
		fields[name] = kind.Message()
	}
	if len(fields) > 0 {
		return domain.StoredAgent{}, newValidationError(fields)
	}
	if payload.Company.PricingModel != "" && !payload.Company.PricingModel.Valid() {
		return domain.StoredAgent{}, newValidationError(map[string]string{
			"pricing_model": fmt.Sprintf("unknown pricing model %q", payload.Company.PricingModel),
		})
	}

	agent, err := s.agents.Create(ctx, payload)
	if err != nil {
		span.RecordError(err)
		return domain.StoredAgent{}, fmt.Errorf("create agent: %w", err)
	}

	s.logger.Info("agent created",
		zap.String("agent_id", agent.ID),
		zap.String("company", agent.Payload.Company.CompanyName))
	return agent, nil
}
