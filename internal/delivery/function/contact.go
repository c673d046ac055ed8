// Package function serves the inquiry endpoint as a single serverless handler.
// Unlike the long-running server it answers every path and rejects any
// method other than POST.
package function

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"medhive-backend/internal/delivery/http/middleware"
	v1 "medhive-backend/internal/delivery/http/v1"
	"medhive-backend/internal/domain"
	"medhive-backend/pkg/apperror"
	"medhive-backend/pkg/contract"
	"medhive-backend/pkg/security"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

type Deps struct {
	InquiryUC      domain.InquiryUsecase
	Audit          *security.AuditLogger
	Redis          goredis.UniversalClient
	Logger         *slog.Logger
	AllowedOrigins []string
	RateLimit      int
	RateWindow     time.Duration
}

type contactFunction struct {
	contact *v1.ContactHandler
}

// NewHandler builds the function's http.Handler. It fails when the CORS
// allow-list is malformed.
func NewHandler(deps Deps) (http.Handler, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	corsHandler, err := middleware.CORSMiddleware(middleware.CORSPolicy{
		AllowedOrigins:  deps.AllowedOrigins,
		PreflightStatus: http.StatusOK,
	})
	if err != nil {
		return nil, fmt.Errorf("inquiry function: %w", err)
	}
	fn := &contactFunction{contact: v1.NewContactHandler(deps.InquiryUC, deps.Audit)}
	limiter := middleware.NewRateLimiter(
		middleware.ContactRateLimitConfig(deps.RateLimit, deps.RateWindow),
		deps.Redis,
		deps.Audit,
	)

	r := gin.New()
	r.Use(corsHandler)
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(deps.Logger))
	r.Use(middleware.ErrorHandler(deps.Logger))
	r.Use(limiter.Middleware())

	r.NoRoute(fn.serve)
	return r, nil
}

func (f *contactFunction) serve(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodPost:
		f.contact.SubmitInquiry(c)
	case http.MethodOptions:
		c.Status(http.StatusOK)
	default:
		c.Header("Allow", "POST, OPTIONS")
		c.Error(apperror.MethodNotAllowed(contract.MsgMethodNotAllowed))
	}
}
