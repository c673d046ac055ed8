package v1

import (
	"fmt"
	"log/slog"
	"net/http"

	"medhive-backend/config"
	"medhive-backend/internal/delivery/http/middleware"
	"medhive-backend/internal/domain"
	"medhive-backend/internal/usecase"
	"medhive-backend/pkg/security"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	InquiryUC domain.InquiryUsecase
	HealthUC  usecase.HealthUsecase
	Audit     *security.AuditLogger
	Redis     goredis.UniversalClient // optional; rate limiting falls back to memory
	Logger    *slog.Logger
	Config    *config.Config
}

// NewRouter builds the server engine. It fails when the CORS allow-list is
// malformed.
func NewRouter(deps RouterDeps) (*gin.Engine, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	corsHandler, err := middleware.CORSMiddleware(middleware.CORSPolicy{
		AllowedOrigins:  deps.Config.CORSAllowedOrigins,
		PreflightStatus: http.StatusNoContent,
	})
	if err != nil {
		return nil, fmt.Errorf("server router: %w", err)
	}

	r := gin.New()

	// Global Middlewares
	r.Use(corsHandler) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(deps.Logger))
	r.Use(middleware.ErrorHandler(deps.Logger))

	// Strict CSP for JSON routes only; the docs page needs its own policy
	jsonRoutes := r.Group("", middleware.SecurityHeadersMiddleware())
	NewHealthHandler(jsonRoutes, deps.HealthUC, deps.InquiryUC)

	api := r.Group("/api", middleware.SecurityHeadersMiddleware())
	limiter := middleware.NewRateLimiter(
		middleware.ContactRateLimitConfig(deps.Config.RateLimitContactRequest, deps.Config.RateLimitWindow()),
		deps.Redis,
		deps.Audit,
	)
	NewContactHandler(deps.InquiryUC, deps.Audit).Register(api, limiter.Middleware())

	// Swagger
	r.GET("/swagger/*any", middleware.DocsSecurityHeadersMiddleware(), ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r, nil
}
