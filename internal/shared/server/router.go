// Package server assembles the HTTP surface: middleware chain and routes.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opencodeiiita/careercraft-backend/internal/coverletters"
	"github.com/opencodeiiita/careercraft-backend/internal/resumes"
	"github.com/opencodeiiita/careercraft-backend/internal/services/health"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/config"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/server/middleware"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/server/respond"
)

// Deps carries the handlers the router mounts.
type Deps struct {
	Resumes      *resumes.Handler
	CoverLetters *coverletters.Handler
	Health       *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	if cfg.ObjectStoreType == "local" {
		r.Static("/files", cfg.LocalStoreDir)
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.OK(c, deps.Health.Status())
	})
	api.GET("/ready", func(c *gin.Context) {
		status := deps.Health.Readiness(c.Request.Context())
		code := http.StatusOK
		if !status["ok"] {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})

	authed := api.Group("", middleware.Identity(), middleware.RateLimit(rateLimits()))
	deps.Resumes.RegisterRoutes(authed)
	deps.CoverLetters.RegisterRoutes(authed)

	return r
}

// rateLimits throttles the endpoints that fan out to the ML service harder
// than plain reads.
func rateLimits() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"ML":      {Rate: 0.5, Burst: 5},
			"DEFAULT": {Rate: 10, Burst: 30},
		},
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost {
				return "ML"
			}
			return "DEFAULT"
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
