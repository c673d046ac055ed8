package v1

import (
	"net/http"

	"medhive-backend/internal/delivery/http/response"
	"medhive-backend/internal/domain"
	"medhive-backend/internal/usecase"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	healthUC  usecase.HealthUsecase
	inquiryUC domain.InquiryUsecase
}

func NewHealthHandler(r gin.IRoutes, healthUC usecase.HealthUsecase, inquiryUC domain.InquiryUsecase) {
	handler := &HealthHandler{healthUC: healthUC, inquiryUC: inquiryUC}

	r.GET("/health", handler.Health)
	r.GET("/ready", handler.Ready)
}

// Health godoc
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.healthUC.Check(c.Request.Context()))
}

// Ready godoc
// @Summary      Readiness probe
// @Description  Reports mail provider configuration and the reachability of optional backing stores.
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	result, ok := h.healthUC.Ready(c.Request.Context())
	if h.inquiryUC != nil && !h.inquiryUC.Ready() {
		result["mailer"] = "not configured"
		ok = false
	} else {
		result["mailer"] = "ok"
	}

	if !ok {
		result["status"] = "unavailable"
		response.JSON(c, http.StatusServiceUnavailable, result)
		return
	}
	result["status"] = "ok"
	response.JSON(c, http.StatusOK, result)
}
