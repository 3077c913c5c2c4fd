package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smallbiznis/bbf-onboarding/internal/adapter/gemini"
	"github.com/smallbiznis/bbf-onboarding/internal/config"
	"github.com/smallbiznis/bbf-onboarding/internal/domain"
	transport "github.com/smallbiznis/bbf-onboarding/internal/http"
	"github.com/smallbiznis/bbf-onboarding/internal/http/handler"
	"github.com/smallbiznis/bbf-onboarding/internal/repository"
	"github.com/smallbiznis/bbf-onboarding/internal/service"
)

func newTestRouter(t *testing.T) (*gin.Engine, *repository.MemoryAgentRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		ServiceName: "bbf-onboarding-test",
		DemoMode:    true,
		DemoOTP:     "123456",
		OTPTTL:      10 * time.Minute,
	}
	users := repository.NewMemoryUserRepo()
	agents := repository.NewMemoryAgentRepo()
	codes := repository.NewMemoryOTPStore()
	logger := zap.NewNop()

	onboarding := service.NewOnboardingService(users, agents, codes, cfg, logger)
	directory := service.NewDirectoryService(users, agents, logger)
	h := handler.NewOnboardingHandler(onboarding, directory, gemini.NewStub())
	return transport.NewRouter(cfg, h, nil), agents
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSignupRejectsFreeEmailDomain(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/signup", gin.H{
		"email": "jane@gmail.com", "first_name": "Jane", "last_name": "Smith",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "Please use a business email", resp.Fields["email"])
}

func TestSignupVerifyAndCreateAgentFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/signup", gin.H{
		"email": "test@example.com", "first_name": "Test", "last_name": "User",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var user domain.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	require.NotEmpty(t, user.ID)
	require.False(t, user.Verified)

	// Wrong code first.
	w = doJSON(t, router, http.MethodPost, "/api/verify-otp", gin.H{
		"email": "test@example.com", "otp": "000000",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Invalid OTP")

	w = doJSON(t, router, http.MethodPost, "/api/verify-otp", gin.H{
		"email": "test@example.com", "otp": "123456",
	})
	require.Equal(t, http.StatusOK, w.Code)

	payload := domain.OnboardingPayload{
		User: user,
		Company: domain.Company{
			CompanyName:  "Test Company Inc",
			Website:      "https://testcompany.com",
			Domains:      []string{"testing", "qa"},
			PricingModel: domain.PricingSubscription,
		},
		Goals: domain.Goals{ShortTerm: "Short term", LongTerm: "Long term"},
	}
	w = doJSON(t, router, http.MethodPost, "/api/agents", payload)
	require.Equal(t, http.StatusOK, w.Code)

	var created struct {
		AgentID string `json:"agent_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.AgentID)

	// The stored company is retrievable by id.
	w = doJSON(t, router, http.MethodGet, "/api/companies/"+created.AgentID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var agent domain.StoredAgent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &agent))
	require.Equal(t, "Test Company Inc", agent.Payload.Company.CompanyName)

	// And shows up in the registry.
	w = doJSON(t, router, http.MethodGet, "/api/registry", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), created.AgentID)
	require.Contains(t, w.Body.String(), user.ID)
}

func TestAutofillCompanyBlanksEIN(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/autofill/company", gin.H{
		"email_domain": "acmecorp.com",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var company domain.Company
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &company))
	require.Equal(t, "ACMECORP Corp", company.CompanyName)
	require.Equal(t, "https://acmecorp.com", company.Website)
	require.Empty(t, company.EIN)

	w = doJSON(t, router, http.MethodPost, "/api/autofill/company", gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateGoalsReturnsSuggestions(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/autofill/goals", domain.Company{
		CompanyName: "Acme Corp",
		Website:     "https://acmecorp.com",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var goals domain.Goals
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &goals))
	require.NotEmpty(t, goals.ShortTerm)
	require.NotEmpty(t, goals.LongTerm)
}

func TestGetCompanyNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/companies/agt_missing", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "Company not found")
}

func TestGraphNodesMatchCompanies(t *testing.T) {
	router, agents := newTestRouter(t)

	for _, name := range []string{"Acme Corp", "TechFlow", "DataWise"} {
		_, err := agents.Create(context.Background(), domain.OnboardingPayload{
			User:    domain.User{FirstName: "Jane", LastName: "Smith", Email: "jane@acmecorp.com"},
			Company: domain.Company{CompanyName: name, Website: "https://x.com", PricingModel: domain.PricingEnterprise},
		})
		require.NoError(t, err)
	}

	w := doJSON(t, router, http.MethodGet, "/api/companies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var companies []domain.StoredAgent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &companies))
	require.Len(t, companies, 3)

	w = doJSON(t, router, http.MethodGet, "/api/graph", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var graph domain.GraphData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &graph))
	require.Len(t, graph.Nodes, len(companies))

	nodeIDs := make(map[string]bool, len(graph.Nodes))
	for _, node := range graph.Nodes {
		nodeIDs[node.ID] = true
	}
	for _, company := range companies {
		require.True(t, nodeIDs[company.ID], "missing node for %s", company.ID)
	}
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "ok")
}
