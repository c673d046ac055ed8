package function

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"medhive-backend/internal/domain"
	"medhive-backend/pkg/contract"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockInquiryUsecase struct {
	mock.Mock
}

func (m *MockInquiryUsecase) SubmitInquiry(ctx context.Context, inquiry domain.Inquiry, opts domain.SubmitOptions) error {
	return m.Called(ctx, inquiry, opts).Error(0)
}

func (m *MockInquiryUsecase) Ready() bool { return true }

func testDeps(uc domain.InquiryUsecase, origins ...string) Deps {
	return Deps{
		InquiryUC:      uc,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		AllowedOrigins: origins,
		RateLimit:      100,
		RateWindow:     time.Minute,
	}
}

func newHandler(t *testing.T, uc domain.InquiryUsecase, origins ...string) http.Handler {
	t.Helper()
	h, err := NewHandler(testDeps(uc, origins...))
	require.NoError(t, err)
	return h
}

func TestFunctionRejectsOriginWithoutScheme(t *testing.T) {
	var (
		h   http.Handler
		err error
	)
	assert.NotPanics(t, func() {
		h, err = NewHandler(testDeps(new(MockInquiryUsecase), "https://medhive.health", "medhive.health"))
	})
	assert.Nil(t, h)
	assert.ErrorContains(t, err, "bad origin")
}

func TestFunctionOptionsReturns200(t *testing.T) {
	uc := new(MockInquiryUsecase)
	h := newHandler(t, uc, "https://medhive.health")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, contract.Path, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodOptions, contract.Path, nil)
	req.Header.Set("Origin", "https://medhive.health")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://medhive.health", w.Header().Get("Access-Control-Allow-Origin"))

	uc.AssertNotCalled(t, "SubmitInquiry", mock.Anything, mock.Anything, mock.Anything)
}

func TestFunctionRejectsOtherMethods(t *testing.T) {
	uc := new(MockInquiryUsecase)
	h := newHandler(t, uc, "https://medhive.health")

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(method, contract.Path, nil))

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		assert.JSONEq(t, `{"error":"Method not allowed"}`, w.Body.String())
	}
	uc.AssertNotCalled(t, "SubmitInquiry", mock.Anything, mock.Anything, mock.Anything)
}

func TestFunctionSubmits(t *testing.T) {
	uc := new(MockInquiryUsecase)
	uc.On("SubmitInquiry", mock.Anything, domain.Inquiry{
		OrganizationName: "Acme", ContactEmail: "a@acme.com", Message: "Hello",
	}, mock.Anything).Return(nil)
	h := newHandler(t, uc, "https://medhive.health")

	req := httptest.NewRequest(http.MethodPost, contract.Path, strings.NewReader(`{"orgName":"Acme","email":"a@acme.com","inquiry":"Hello"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Emails sent successfully"}`, w.Body.String())
	uc.AssertExpectations(t)
}

func TestFunctionMissingFields(t *testing.T) {
	uc := new(MockInquiryUsecase)
	uc.On("SubmitInquiry", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.ValidationError{Fields: []string{"inquiry"}})
	h := newHandler(t, uc, "https://medhive.health")

	req := httptest.NewRequest(http.MethodPost, contract.Path, strings.NewReader(`{"orgName":"Acme","email":"a@acme.com"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"All fields are required"}`, w.Body.String())
}

func TestFunctionWildcardCORS(t *testing.T) {
	uc := new(MockInquiryUsecase)
	uc.On("SubmitInquiry", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	h := newHandler(t, uc, "*")

	req := httptest.NewRequest(http.MethodPost, contract.Path, strings.NewReader(`{"orgName":"Acme","email":"a@acme.com","inquiry":"Hello"}`))
	req.Header.Set("Origin", "https://random-site.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestFunctionAllowListRejectsUnknownOrigin(t *testing.T) {
	uc := new(MockInquiryUsecase)
	h := newHandler(t, uc, "https://medhive.health")

	req := httptest.NewRequest(http.MethodPost, contract.Path, strings.NewReader(`{}`))
	req.Header.Set("Origin", "https://random-site.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
