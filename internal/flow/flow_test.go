package flow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smallbiznis/bbf-onboarding/internal/adapter/gemini"
	"github.com/smallbiznis/bbf-onboarding/internal/domain"
	"github.com/smallbiznis/bbf-onboarding/internal/flow"
)

var errInvalidOTP = errors.New("invalid_otp: Invalid OTP")

type fakeBackend struct {
	expectedOTP string
	signupCalls int
	createErr   error
	created     []domain.OnboardingPayload
}

func (b *fakeBackend) Signup(_ context.Context, firstName, lastName, email string) (domain.User, error) {
	b.signupCalls++
	return domain.User{
		ID:                 "u_001",
		FirstName:          firstName,
		LastName:           lastName,
		Email:              email,
		VerificationMethod: domain.VerificationMethodOTP,
	}, nil
}

func (b *fakeBackend) VerifyOTP(_ context.Context, _, code string) error {
	if code != b.expectedOTP {
		return errInvalidOTP
	}
	return nil
}

func (b *fakeBackend) CreateAgent(_ context.Context, payload domain.OnboardingPayload) (domain.StoredAgent, error) {
	if b.createErr != nil {
		return domain.StoredAgent{}, b.createErr
	}
	b.created = append(b.created, payload)
	return domain.StoredAgent{ID: "agt_001", Status: domain.AgentStatusActive, Payload: payload}, nil
}

func newTestSession(backend *fakeBackend) *flow.Session {
	return flow.NewSession(backend, gemini.NewStub(), nil)
}

func signUp(t *testing.T, s *flow.Session) {
	t.Helper()
	fields, err := s.SubmitSignUp(context.Background(), "Jane", "Smith", "jane@acmecorp.com")
	require.NoError(t, err)
	require.Empty(t, fields)
}

func TestStepNextIsLinear(t *testing.T) {
	order := []flow.Step{
		flow.StepSignUp, flow.StepVerifyOTP, flow.StepCompanyInfo,
		flow.StepGoals, flow.StepReview, flow.StepSuccess,
	}
	for i := 0; i < len(order)-1; i++ {
		next, ok := order[i].Next()
		require.True(t, ok)
		require.Equal(t, order[i+1], next)
	}
	_, ok := flow.StepSuccess.Next()
	require.False(t, ok)
}

func TestSignUpValidationGatesSideEffect(t *testing.T) {
	backend := &fakeBackend{expectedOTP: "123456"}
	s := newTestSession(backend)

	fields, err := s.SubmitSignUp(context.Background(), "", "", "jane@gmail.com")
	require.NoError(t, err)
	require.Equal(t, "Please use a business email", fields["email"])
	require.Equal(t, "Required", fields["first_name"])
	require.Equal(t, "Required", fields["last_name"])
	require.Equal(t, flow.StepSignUp, s.Step())
	require.Zero(t, backend.signupCalls, "signup side effect must not fire on validation failure")

	signUp(t, s)
	require.Equal(t, flow.StepVerifyOTP, s.Step())
	require.Equal(t, 1, backend.signupCalls)
}

func TestOTPMismatchStaysInVerify(t *testing.T) {
	backend := &fakeBackend{expectedOTP: "123456"}
	s := newTestSession(backend)
	signUp(t, s)

	err := s.SubmitOTP(context.Background(), "000000")
	require.Error(t, err)
	require.Equal(t, flow.StepVerifyOTP, s.Step())

	require.NoError(t, s.SubmitOTP(context.Background(), "123456"))
	require.Equal(t, flow.StepCompanyInfo, s.Step())
}

func TestStepOrderGuard(t *testing.T) {
	s := newTestSession(&fakeBackend{expectedOTP: "123456"})

	require.ErrorIs(t, s.SubmitOTP(context.Background(), "123456"), flow.ErrStepOrder)
	_, err := s.SubmitCompany(context.Background(), flow.CompanyForm{CompanyName: "X", Website: "https://x"})
	require.ErrorIs(t, err, flow.ErrStepOrder)
	require.ErrorIs(t, s.SubmitGoals(context.Background(), domain.Goals{}), flow.ErrStepOrder)
	_, err = s.Submit(context.Background())
	require.ErrorIs(t, err, flow.ErrStepOrder)
}

func TestAutofillOverwritesAllButEIN(t *testing.T) {
	backend := &fakeBackend{expectedOTP: "123456"}
	s := newTestSession(backend)
	signUp(t, s)
	require.NoError(t, s.SubmitOTP(context.Background(), "123456"))

	company := s.AutofillCompany(context.Background())
	require.Equal(t, "ACMECORP Corp", company.CompanyName)
	require.Equal(t, "https://acmecorp.com", company.Website)
	require.Equal(t, []string{"acmecorp.com"}, company.Domains)
	require.Equal(t, domain.PricingEnterprise, company.PricingModel)
	require.Empty(t, company.EIN, "EIN must always be blanked after autofill")
}

func TestCompanyRequiredFieldsAndDomainParsing(t *testing.T) {
	backend := &fakeBackend{expectedOTP: "123456"}
	s := newTestSession(backend)
	signUp(t, s)
	require.NoError(t, s.SubmitOTP(context.Background(), "123456"))

	fields, err := s.SubmitCompany(context.Background(), flow.CompanyForm{Domains: "testing"})
	require.NoError(t, err)
	require.Equal(t, "Required", fields["company_name"])
	require.Equal(t, "Required", fields["website"])
	require.Equal(t, flow.StepCompanyInfo, s.Step())

	fields, err = s.SubmitCompany(context.Background(), flow.CompanyForm{
		CompanyName:  "Test Company Inc",
		Website:      "https://testcompany.com",
		Domains:      " testing , qa ,, ",
		PricingModel: domain.PricingSubscription,
	})
	require.NoError(t, err)
	require.Empty(t, fields)
	require.Equal(t, flow.StepGoals, s.Step())
	require.Equal(t, []string{"testing", "qa"}, s.Company().Domains)
}

func TestFullFlowToSuccess(t *testing.T) {
	backend := &fakeBackend{expectedOTP: "123456"}
	s := newTestSession(backend)

	signUp(t, s)
	require.NoError(t, s.SubmitOTP(context.Background(), "123456"))

	_, err := s.SubmitCompany(context.Background(), flow.CompanyForm{
		CompanyName:  "Test Company Inc",
		Website:      "https://testcompany.com",
		Domains:      "testing,qa",
		PricingModel: domain.PricingSubscription,
	})
	require.NoError(t, err)

	goals := s.GenerateGoals(context.Background())
	require.Equal(t, gemini.FallbackGoals(), goals)
	require.NoError(t, s.SubmitGoals(context.Background(), goals))
	require.Equal(t, flow.StepReview, s.Step())

	payload := s.Payload()
	require.Equal(t, "jane@acmecorp.com", payload.User.Email)
	require.Equal(t, "Test Company Inc", payload.Company.CompanyName)

	id, err := s.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, "agt_001", id)
	require.Equal(t, flow.StepSuccess, s.Step())
	require.Equal(t, "agt_001", s.AgentID())
	require.Len(t, backend.created, 1)
	require.Equal(t, payload, backend.created[0])
}

func TestSubmitFailureStaysInReview(t *testing.T) {
	backend := &fakeBackend{expectedOTP: "123456", createErr: errors.New("disk full")}
	s := newTestSession(backend)

	signUp(t, s)
	require.NoError(t, s.SubmitOTP(context.Background(), "123456"))
	_, err := s.SubmitCompany(context.Background(), flow.CompanyForm{CompanyName: "X", Website: "https://x.com"})
	require.NoError(t, err)
	require.NoError(t, s.SubmitGoals(context.Background(), domain.Goals{}))

	_, err = s.Submit(context.Background())
	require.Error(t, err)
	require.Equal(t, flow.StepReview, s.Step())

	// Same step can be retried once the backend recovers.
	backend.createErr = nil
	id, err := s.Submit(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Equal(t, flow.StepSuccess, s.Step())
}

func TestRestartDiscardsEverything(t *testing.T) {
	backend := &fakeBackend{expectedOTP: "123456"}
	s := newTestSession(backend)

	signUp(t, s)
	require.NoError(t, s.SubmitOTP(context.Background(), "123456"))
	_, err := s.SubmitCompany(context.Background(), flow.CompanyForm{CompanyName: "X", Website: "https://x.com"})
	require.NoError(t, err)

	s.Restart()
	require.Equal(t, flow.StepSignUp, s.Step())
	require.Empty(t, s.AgentID())
	require.Equal(t, domain.Company{}, s.Company())
	require.Equal(t, domain.Goals{}, s.Goals())
	require.Equal(t, domain.OnboardingPayload{}, s.Payload())
}
