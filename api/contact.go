// Package handler is the serverless entry point for the inquiry endpoint.
// The platform calls Handler for every request routed to /api/contact.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"medhive-backend/config"
	"medhive-backend/internal/app"
	"medhive-backend/internal/delivery/function"
	"medhive-backend/internal/delivery/http/response"
	"medhive-backend/pkg/contract"
	"medhive-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

var (
	initOnce sync.Once
	handler  http.Handler
)

// bootstrap runs once per warm instance; later invocations reuse the mailer,
// Redis client and usecase.
func bootstrap() {
	gin.SetMode(gin.ReleaseMode)
	handler = initHandler(build)
}

// initHandler never returns nil: an error or a panic from build yields the
// 503 handler.
func initHandler(build func() (http.Handler, error)) (h http.Handler) {
	defer func() {
		if r := recover(); r != nil {
			h = unavailable(fmt.Errorf("panic during init: %v", r))
		}
	}()
	h, err := build()
	if err != nil {
		return unavailable(err)
	}
	return h
}

func build() (http.Handler, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.AppEnv, cfg.LogLevel)

	container, err := app.New(context.Background(), cfg, logger.Log)
	if err != nil {
		return nil, err
	}

	fn, err := function.NewHandler(function.Deps{
		InquiryUC:      container.InquiryUC,
		Audit:          container.Audit,
		Redis:          container.RedisClient(),
		Logger:         logger.Log,
		AllowedOrigins: cfg.FunctionCORSAllowedOrigins,
		RateLimit:      cfg.RateLimitContactRequest,
		RateWindow:     cfg.RateLimitWindow(),
	})
	if err != nil {
		_ = container.Close()
		return nil, err
	}
	return fn, nil
}

// unavailable answers 503 to every request when the instance failed to start.
func unavailable(err error) http.Handler {
	slog.Error("inquiry function failed to initialize", "error", err)
	r := gin.New()
	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusServiceUnavailable, contract.MsgServiceUnavailable)
	})
	return r
}

// Handler is the exported function entry point.
func Handler(w http.ResponseWriter, r *http.Request) {
	initOnce.Do(bootstrap)
	handler.ServeHTTP(w, r)
}
