package middleware

import (
	"fmt"
	"net/http"
	"time"

	"medhive-backend/pkg/contract"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSPolicy describes which browser origins may call the inquiry endpoint.
type CORSPolicy struct {
	// AllowedOrigins is an exact-match allow-list. A "*" entry allows every
	// origin; with credentials enabled browsers will still refuse to send
	// cookies to such a response.
	AllowedOrigins []string
	// PreflightStatus is the status answered to OPTIONS preflights.
	PreflightStatus int
}

// CORSMiddleware enforces policy. Requests from origins outside the list are
// answered 403 without any Access-Control-Allow-* headers. Every origin must
// carry an http:// or https:// scheme; a malformed allow-list is an error.
func CORSMiddleware(policy CORSPolicy) (gin.HandlerFunc, error) {
	cfg := cors.Config{
		AllowMethods:              []string{http.MethodPost, http.MethodGet, http.MethodOptions},
		AllowHeaders:              []string{"Origin", "Content-Type", "Accept", contract.IdempotencyHeader, contract.RequestIDHeader},
		ExposeHeaders:             []string{contract.RequestIDHeader, "Retry-After"},
		AllowCredentials:          true,
		MaxAge:                    24 * time.Hour,
		OptionsResponseStatusCode: http.StatusNoContent,
	}
	if policy.PreflightStatus != 0 {
		cfg.OptionsResponseStatusCode = policy.PreflightStatus
	}

	var origins []string
	for _, o := range policy.AllowedOrigins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			origins = nil
			break
		}
		origins = append(origins, o)
	}
	switch {
	case cfg.AllowAllOrigins:
	case len(origins) > 0:
		cfg.AllowOrigins = origins
	default:
		// Empty allow-list: no cross-origin caller is trusted
		cfg.AllowOriginFunc = func(string) bool { return false }
	}

	// cors.New panics on an invalid config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cors allow-list %q: %w", policy.AllowedOrigins, err)
	}
	return cors.New(cfg), nil
}
