package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"medhive-backend/internal/delivery/http/response"
	"medhive-backend/pkg/apperror"
	"medhive-backend/pkg/contract"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error attached with c.Error. Internal detail
// is logged, never sent to the client.
func ErrorHandler(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Err != nil {
				attrs := []any{"request_id", GetRequestID(c), "status", appErr.Code, "error", appErr.Err}
				if appErr.Code >= http.StatusInternalServerError {
					log.Error(appErr.Message, attrs...)
				} else {
					log.Warn(appErr.Message, attrs...)
				}
			}
			response.Error(c, appErr.Code, appErr.Message)
			return
		}

		log.Error("unhandled error", "request_id", GetRequestID(c), "error", err)
		response.Error(c, http.StatusInternalServerError, contract.MsgUnexpected)
	}
}
