package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/smallbiznis/bbf-onboarding/internal/config"
	"github.com/smallbiznis/bbf-onboarding/internal/http/handler"
	httpmiddleware "github.com/smallbiznis/bbf-onboarding/internal/http/middleware"
	"github.com/smallbiznis/bbf-onboarding/internal/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, onboarding *handler.OnboardingHandler, rateLimiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(nil))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	r.GET("/healthz", onboarding.Health)

	api := r.Group("/api")
	{
		api.GET("/registry", onboarding.Registry)
		api.POST("/signup", onboarding.Signup)
		api.POST("/verify-otp", onboarding.VerifyOTP)
		api.POST("/agents", onboarding.CreateAgent)
		api.POST("/autofill/company", onboarding.AutofillCompany)
		api.POST("/autofill/goals", onboarding.GenerateGoals)
		api.GET("/companies", onboarding.ListCompanies)
		api.GET("/companies/:id", onboarding.GetCompany)
		api.GET("/graph", onboarding.Graph)
	}

	return r
}
