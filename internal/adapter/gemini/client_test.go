package gemini_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smallbiznis/bbf-onboarding/internal/adapter/gemini"
	"github.com/smallbiznis/bbf-onboarding/internal/domain"
)

// candidateResponse wraps text into the generateContent response envelope.
func candidateResponse(t *testing.T, text string) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	})
	require.NoError(t, err)
	return raw
}

func TestAutofillCompanyParsesResponse(t *testing.T) {
	profile := `{
		"company_name": "Acme Corp",
		"website": "https://acmecorp.com",
		"domains": ["logistics", "supply-chain"],
		"pricing_model": "Enterprise",
		"services": "B2B logistics automation.",
		"policies": "Standard enterprise security."
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Contains(t, r.URL.Path, ":generateContent")
		_, _ = w.Write(candidateResponse(t, profile))
	}))
	defer srv.Close()

	client := gemini.NewClient(srv.Client(), "test-key", "gemini-3-flash-preview", srv.URL, nil)
	company, err := client.AutofillCompany(context.Background(), "acmecorp.com")
	require.NoError(t, err)
	require.Equal(t, "Acme Corp", company.CompanyName)
	require.Equal(t, domain.PricingEnterprise, company.PricingModel)
	require.Equal(t, []string{"logistics", "supply-chain"}, company.Domains)
	require.Empty(t, company.EIN)
}

func TestAutofillCompanyFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := gemini.NewClient(srv.Client(), "test-key", "gemini-3-flash-preview", srv.URL, nil)
	company, err := client.AutofillCompany(context.Background(), "acmecorp.com")
	require.NoError(t, err, "adapter failures must not propagate")
	require.Equal(t, gemini.FallbackCompany("acmecorp.com"), company)
}

func TestAutofillCompanyFallsBackOnUnreachableHost(t *testing.T) {
	// Closed server: transport-level failure.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	client := gemini.NewClient(nil, "test-key", "gemini-3-flash-preview", srv.URL, nil)
	company, err := client.AutofillCompany(context.Background(), "techflow.io")
	require.NoError(t, err)
	require.Equal(t, "TECHFLOW Corp", company.CompanyName)
	require.Equal(t, "https://techflow.io", company.Website)
	require.Equal(t, []string{"techflow.io"}, company.Domains)
}

func TestAutofillCompanyFallsBackOnInvalidPricingModel(t *testing.T) {
	profile := `{
		"company_name": "Acme Corp",
		"website": "https://acmecorp.com",
		"domains": ["logistics"],
		"pricing_model": "Pay-per-seat",
		"services": "x",
		"policies": "y"
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(candidateResponse(t, profile))
	}))
	defer srv.Close()

	client := gemini.NewClient(srv.Client(), "test-key", "gemini-3-flash-preview", srv.URL, nil)
	company, err := client.AutofillCompany(context.Background(), "acmecorp.com")
	require.NoError(t, err)
	require.Equal(t, gemini.FallbackCompany("acmecorp.com"), company)
}

func TestGenerateGoalsParsesResponse(t *testing.T) {
	goals := `{"short_term": "Sign three pilots.", "long_term": "Own the vertical."}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(candidateResponse(t, goals))
	}))
	defer srv.Close()

	client := gemini.NewClient(srv.Client(), "test-key", "gemini-3-flash-preview", srv.URL, nil)
	got, err := client.GenerateGoals(context.Background(), gemini.FallbackCompany("acmecorp.com"))
	require.NoError(t, err)
	require.Equal(t, domain.Goals{ShortTerm: "Sign three pilots.", LongTerm: "Own the vertical."}, got)
}

func TestGenerateGoalsFallsBackOnGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(candidateResponse(t, "not json at all"))
	}))
	defer srv.Close()

	client := gemini.NewClient(srv.Client(), "test-key", "gemini-3-flash-preview", srv.URL, nil)
	got, err := client.GenerateGoals(context.Background(), domain.Company{CompanyName: "Acme"})
	require.NoError(t, err)
	require.Equal(t, gemini.FallbackGoals(), got)
}

func TestStubIsDeterministic(t *testing.T) {
	stub := gemini.NewStub()

	first, err := stub.AutofillCompany(context.Background(), "datawise.com")
	require.NoError(t, err)
	second, err := stub.AutofillCompany(context.Background(), "datawise.com")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, "DATAWISE Corp", first.CompanyName)

	g1, err := stub.GenerateGoals(context.Background(), first)
	require.NoError(t, err)
	g2, err := stub.GenerateGoals(context.Background(), first)
	require.NoError(t, err)
	require.Equal(t, g1, g2)
}
