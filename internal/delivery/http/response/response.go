package response

import (
	"medhive-backend/pkg/contract"

	"github.com/gin-gonic/gin"
)

// Success sends {"message": ...}
func Success(c *gin.Context, code int, message string) {
	c.JSON(code, contract.SuccessBody{Message: message})
}

// Error sends {"error": ...}. The request ID travels in the X-Request-Id
// header so the body stays exactly what clients expect.
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, contract.ErrorBody{Error: message})
}

// JSON sends an arbitrary payload, used by health endpoints.
func JSON(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}
