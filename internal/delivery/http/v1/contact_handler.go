package v1

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"medhive-backend/internal/delivery/http/middleware"
	"medhive-backend/internal/delivery/http/response"
	"medhive-backend/internal/domain"
	"medhive-backend/pkg/apperror"
	"medhive-backend/pkg/contract"
	"medhive-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	inquiryUC domain.InquiryUsecase
	audit     *security.AuditLogger
}

func NewContactHandler(inquiryUC domain.InquiryUsecase, audit *security.AuditLogger) *ContactHandler {
	return &ContactHandler{
		inquiryUC: inquiryUC,
		audit:     audit,
	}
}

// inProgressRetryAfter is a hint in seconds; a live attempt finishes within SendTimeout.
const inProgressRetryAfter = 5

// Register mounts POST /contact on group. Extra handlers (rate limiting) run first.
func (h *ContactHandler) Register(group *gin.RouterGroup, pre ...gin.HandlerFunc) {
	handlers := append(pre, h.SubmitInquiry)
	group.POST("/contact", handlers...)
}

// SubmitInquiry godoc
// @Summary      Submit partnership inquiry
// @Description  Sends the inquiry to the MedHive team and a confirmation to the sender. Public endpoint.
// @Tags         contact
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string                   false  "Client-generated key; replays return 'Inquiry already received'"
// @Param        inquiry          body      contract.InquiryRequest  true   "Inquiry form data"
// @Success      200              {object}  contract.SuccessBody
// @Failure      400              {object}  contract.ErrorBody
// @Failure      409              {object}  contract.ErrorBody  "An earlier request with the same Idempotency-Key is still sending"
// @Failure      429              {object}  contract.ErrorBody
// @Failure      500              {object}  contract.ErrorBody
// @Failure      503              {object}  contract.ErrorBody
// @Router       /api/contact [post]
func (h *ContactHandler) SubmitInquiry(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := middleware.GetRequestID(c)

	var req contract.InquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.audit.LogValidationFailed(ctx, "", c.ClientIP(), requestID, []string{"body"})
		c.Error(apperror.BadRequest(contract.MsgFieldsRequired, err))
		return
	}

	inquiry := domain.Inquiry{
		OrganizationName: req.OrgName,
		ContactEmail:     req.Email,
		Message:          req.Inquiry,
	}
	opts := domain.SubmitOptions{
		RequestKey: strings.TrimSpace(c.GetHeader(contract.IdempotencyHeader)),
		RequestID:  requestID,
		ClientIP:   c.ClientIP(),
	}

	err := h.inquiryUC.SubmitInquiry(ctx, inquiry, opts)
	if err == nil {
		response.Success(c, http.StatusOK, contract.MsgEmailsSent)
		return
	}

	var validationErr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrDuplicateInquiry):
		h.audit.LogDuplicateInquiry(ctx, opts.RequestKey, opts.ClientIP, requestID)
		response.Success(c, http.StatusOK, contract.MsgAlreadyReceived)
	case errors.Is(err, domain.ErrInquiryInProgress):
		c.Header("Retry-After", strconv.Itoa(inProgressRetryAfter))
		c.Error(apperror.Conflict(contract.MsgInProgress, err))
	case errors.As(err, &validationErr):
		h.audit.LogValidationFailed(ctx, req.Email, opts.ClientIP, requestID, validationErr.Fields)
		c.Error(apperror.BadRequest(contract.MsgFieldsRequired, nil))
	case errors.Is(err, domain.ErrMailerNotConfigured):
		c.Error(apperror.Unavailable(contract.MsgServiceUnavailable, err))
	default:
		h.audit.LogDispatchFailed(ctx, req.Email, opts.ClientIP, requestID)
		c.Error(apperror.Internal(contract.MsgSendFailed, err))
	}
}
