package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smallbiznis/bbf-onboarding/internal/adapter/gemini"
	"github.com/smallbiznis/bbf-onboarding/internal/domain"
	"github.com/smallbiznis/bbf-onboarding/internal/service"
)

// OnboardingHandler exposes the onboarding and company directory endpoints.
type OnboardingHandler struct {
	Onboarding *service.OnboardingService
	Directory  *service.DirectoryService
	Enricher   gemini.Enricher
}

// NewOnboardingHandler creates the handler set.
func NewOnboardingHandler(onboarding *service.OnboardingService, directory *service.DirectoryService, enricher gemini.Enricher) *OnboardingHandler {
	return &OnboardingHandler{Onboarding: onboarding, Directory: directory, Enricher: enricher}
}

// Health reports liveness.
func (h *OnboardingHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "onboarding"})
}

// Signup registers an unverified user and issues a one-time code.
func (h *OnboardingHandler) Signup(c *gin.Context) {
	var req struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid signup request."})
		return
	}

	user, err := h.Onboarding.Signup(c.Request.Context(), req.FirstName, req.LastName, req.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// VerifyOTP checks a submitted code against the one issued at signup.
func (h *OnboardingHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid verification request."})
		return
	}

	if err := h.Onboarding.VerifyOTP(c.Request.Context(), req.Email, req.OTP); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// CreateAgent persists a completed onboarding payload.
func (h *OnboardingHandler) CreateAgent(c *gin.Context) {
	var payload domain.OnboardingPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid onboarding payload."})
		return
	}

	agent, err := h.Onboarding.CreateAgent(c.Request.Context(), payload)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agent_id": agent.ID})
}

// AutofillCompany suggests a company profile from an email domain. The EIN
// is never suggested; it must be entered manually.
func (h *OnboardingHandler) AutofillCompany(c *gin.Context) {
	var req struct {
		EmailDomain string `json:"email_domain"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.EmailDomain == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid autofill request."})
		return
	}

	company, err := h.Enricher.AutofillCompany(c.Request.Context(), req.EmailDomain)
	if err != nil {
		h.respondError(c, err)
		return
	}
	company.EIN = ""
	c.JSON(http.StatusOK, company)
}

// GenerateGoals suggests goals for a company profile.
func (h *OnboardingHandler) GenerateGoals(c *gin.Context) {
	var company domain.Company
	if err := c.ShouldBindJSON(&company); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid goals request."})
		return
	}

	goals, err := h.Enricher.GenerateGoals(c.Request.Context(), company)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, goals)
}

// ListCompanies returns every stored agent.
func (h *OnboardingHandler) ListCompanies(c *gin.Context) {
	companies, err := h.Directory.Companies(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if companies == nil {
		companies = []domain.StoredAgent{}
	}
	c.JSON(http.StatusOK, companies)
}

// GetCompany returns one stored agent by id.
func (h *OnboardingHandler) GetCompany(c *gin.Context) {
	agent, err := h.Directory.Company(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

// Graph returns the node/edge view of the stored agents.
func (h *OnboardingHandler) Graph(c *gin.Context) {
	graph, err := h.Directory.Graph(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, graph)
}

// Registry returns the raw users and agents collections.
func (h *OnboardingHandler) Registry(c *gin.Context) {
	registry, err := h.Directory.Registry(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, registry)
}

// respondError maps service errors onto the wire format. FlowErrors carry
// their own status and optional field map; everything else is a 500 with a
// single message.
func (h *OnboardingHandler) respondError(c *gin.Context, err error) {
	var flowErr *service.FlowError
	if errors.As(err, &flowErr) {
		body := gin.H{"message": flowErr.Message}
		if len(flowErr.Fields) > 0 {
			body["fields"] = flowErr.Fields
		}
		c.JSON(flowErr.Status, body)
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
}
