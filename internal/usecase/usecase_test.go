package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"medhive-backend/internal/domain"
	"medhive-backend/internal/repository/memory"
	"medhive-backend/internal/usecase"
	"medhive-backend/pkg/email"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const operatorInbox = "ops@medhive.health"

// MockMailer records every send.
type MockMailer struct {
	mock.Mock
	notConfigured bool
}

func (m *MockMailer) Send(ctx context.Context, msg email.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockMailer) IsConfigured() bool {
	return !m.notConfigured
}

type MockDedupStore struct {
	mock.Mock
}

func (m *MockDedupStore) Claim(ctx context.Context, key string, ttl time.Duration) (domain.ClaimStatus, error) {
	args := m.Called(ctx, key, ttl)
	return args.Get(0).(domain.ClaimStatus), args.Error(1)
}

func (m *MockDedupStore) Complete(ctx context.Context, key string, ttl time.Duration) error {
	return m.Called(ctx, key, ttl).Error(0)
}

func (m *MockDedupStore) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type recordingPublisher struct {
	events chan domain.InquiryDispatched
}

func (p *recordingPublisher) PublishInquiryDispatched(ctx context.Context, event domain.InquiryDispatched) error {
	p.events <- event
	return nil
}

func to(address string) interface{} {
	return mock.MatchedBy(func(msg email.Message) bool { return msg.To == address })
}

func validInquiry() domain.Inquiry {
	return domain.Inquiry{OrganizationName: "Acme", ContactEmail: "a@acme.com", Message: "Hello"}
}

func newUsecase(mailer domain.Mailer, dedup domain.DedupStore, events domain.EventPublisher, timeout time.Duration) domain.InquiryUsecase {
	return usecase.NewInquiryUsecase(mailer, dedup, events, nil, usecase.InquiryConfig{
		OperatorAddress: operatorInbox,
		SendTimeout:     timeout,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSubmitInquiryRejectsMissingFields(t *testing.T) {
	cases := map[string]domain.Inquiry{
		"missing organization": {ContactEmail: "a@acme.com", Message: "Hello"},
		"missing email":        {OrganizationName: "Acme", Message: "Hello"},
		"missing message":      {OrganizationName: "Acme", ContactEmail: "a@acme.com"},
		"blank message":        {OrganizationName: "Acme", ContactEmail: "a@acme.com", Message: "  \n "},
		"all empty":            {},
	}

	for name, inquiry := range cases {
		t.Run(name, func(t *testing.T) {
			mailer := new(MockMailer)
			uc := newUsecase(mailer, nil, nil, time.Second)

			err := uc.SubmitInquiry(context.Background(), inquiry, domain.SubmitOptions{})

			require.ErrorIs(t, err, domain.ErrValidation)
			mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
			mailer.AssertNumberOfCalls(t, "Send", 0)
		})
	}
}

func TestSubmitInquiryReportsMissingFieldNames(t *testing.T) {
	uc := newUsecase(new(MockMailer), nil, nil, time.Second)

	err := uc.SubmitInquiry(context.Background(), domain.Inquiry{OrganizationName: "Acme"}, domain.SubmitOptions{})

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.ElementsMatch(t, []string{"email", "inquiry"}, validationErr.Fields)
}

func TestSubmitInquirySendsBothNotificationsConcurrently(t *testing.T) {
	mailer := new(MockMailer)
	started := make(chan string, 2)
	release := make(chan struct{})
	mailer.On("Send", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		started <- args.Get(1).(email.Message).To
		<-release
	})
	uc := newUsecase(mailer, nil, nil, 5*time.Second)

	errCh := make(chan error, 1)
	go func() {
		errCh <- uc.SubmitInquiry(context.Background(), validInquiry(), domain.SubmitOptions{})
	}()

	// Both sends must be in flight before either is allowed to resolve.
	var recipients []string
	for i := 0; i < 2; i++ {
		select {
		case r := <-started:
			recipients = append(recipients, r)
		case <-time.After(2 * time.Second):
			close(release)
			t.Fatalf("send %d never started while the first was still pending: dispatch is sequential", i+1)
		}
	}
	close(release)

	require.NoError(t, <-errCh)
	assert.ElementsMatch(t, []string{operatorInbox, "a@acme.com"}, recipients)
	mailer.AssertNumberOfCalls(t, "Send", 2)
}

func TestSubmitInquiryRendersBothRoles(t *testing.T) {
	mailer := new(MockMailer)
	var mu sync.Mutex
	sent := map[string]email.Message{}
	mailer.On("Send", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		msg := args.Get(1).(email.Message)
		mu.Lock()
		sent[msg.To] = msg
		mu.Unlock()
	})
	uc := newUsecase(mailer, nil, nil, time.Second)

	in := validInquiry()
	in.OrganizationName = "  Acme  "
	require.NoError(t, uc.SubmitInquiry(context.Background(), in, domain.SubmitOptions{}))

	require.Contains(t, sent, operatorInbox)
	require.Contains(t, sent, "a@acme.com")
	assert.Equal(t, "a@acme.com", sent[operatorInbox].ReplyTo)
	assert.Contains(t, sent[operatorInbox].Subject, "Acme")
	assert.NotContains(t, sent[operatorInbox].Subject, "  Acme")
	assert.Contains(t, sent["a@acme.com"].HTML, "Hello")
}

func TestSubmitInquiryIsAllOrNothing(t *testing.T) {
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, to(operatorInbox)).Return(nil)
	mailer.On("Send", mock.Anything, to("a@acme.com")).Return(errors.New("550 mailbox unavailable"))
	uc := newUsecase(mailer, nil, nil, time.Second)

	err := uc.SubmitInquiry(context.Background(), validInquiry(), domain.SubmitOptions{})

	require.ErrorIs(t, err, domain.ErrDispatch)
	assert.Contains(t, err.Error(), "inquirer")
	// The operator send still ran to completion.
	mailer.AssertNumberOfCalls(t, "Send", 2)
}

func TestSubmitInquiryIsNotIdempotentWithoutRequestKey(t *testing.T) {
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.Anything).Return(nil)
	uc := newUsecase(mailer, memory.NewDedupStore(), nil, time.Second)

	require.NoError(t, uc.SubmitInquiry(context.Background(), validInquiry(), domain.SubmitOptions{}))
	require.NoError(t, uc.SubmitInquiry(context.Background(), validInquiry(), domain.SubmitOptions{}))

	mailer.AssertNumberOfCalls(t, "Send", 4)
}

func TestSubmitInquiryDeduplicatesByRequestKey(t *testing.T) {
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.Anything).Return(nil)
	uc := newUsecase(mailer, memory.NewDedupStore(), nil, time.Second)
	opts := domain.SubmitOptions{RequestKey: "6f1c2d7e-0000-4000-8000-000000000001"}

	require.NoError(t, uc.SubmitInquiry(context.Background(), validInquiry(), opts))
	err := uc.SubmitInquiry(context.Background(), validInquiry(), opts)

	require.ErrorIs(t, err, domain.ErrDuplicateInquiry)
	mailer.AssertNumberOfCalls(t, "Send", 2)
}

func TestSubmitInquiryReleasesRequestKeyOnFailure(t *testing.T) {
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Times(2)
	mailer.On("Send", mock.Anything, mock.Anything).Return(nil)
	uc := newUsecase(mailer, memory.NewDedupStore(), nil, time.Second)
	opts := domain.SubmitOptions{RequestKey: "retry-key"}

	require.ErrorIs(t, uc.SubmitInquiry(context.Background(), validInquiry(), opts), domain.ErrDispatch)
	require.NoError(t, uc.SubmitInquiry(context.Background(), validInquiry(), opts))

	mailer.AssertNumberOfCalls(t, "Send", 4)
}

func TestSubmitInquiryDedupOutageFailsOpen(t *testing.T) {
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.Anything).Return(nil)
	dedup := new(MockDedupStore)
	dedup.On("Claim", mock.Anything, "k", mock.Anything).Return(domain.ClaimPending, errors.New("redis down"))
	uc := newUsecase(mailer, dedup, nil, time.Second)

	require.NoError(t, uc.SubmitInquiry(context.Background(), validInquiry(), domain.SubmitOptions{RequestKey: "k"}))

	mailer.AssertNumberOfCalls(t, "Send", 2)
	dedup.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
	dedup.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitInquiryRetryDuringFailingAttemptIsNotReportedAsReceived(t *testing.T) {
	mailer := new(MockMailer)
	started := make(chan struct{}, 2)
	unblock := make(chan struct{})
	mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp 451")).Run(func(mock.Arguments) {
		started <- struct{}{}
		<-unblock
	}).Times(2)
	mailer.On("Send", mock.Anything, mock.Anything).Return(nil)
	uc := newUsecase(mailer, memory.NewDedupStore(), nil, 5*time.Second)
	opts := domain.SubmitOptions{RequestKey: "6f1c2d7e-0000-4000-8000-000000000002"}

	first := make(chan error, 1)
	go func() {
		first <- uc.SubmitInquiry(context.Background(), validInquiry(), opts)
	}()
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		close(unblock)
		t.Fatal("first attempt never reached the mailer")
	}

	// Same key while the first attempt is still sending.
	second := uc.SubmitInquiry(context.Background(), validInquiry(), opts)
	assert.ErrorIs(t, second, domain.ErrInquiryInProgress)
	assert.NotErrorIs(t, second, domain.ErrDuplicateInquiry)

	close(unblock)
	require.ErrorIs(t, <-first, domain.ErrDispatch)

	// The key was released, so the client's next retry actually delivers.
	require.NoError(t, uc.SubmitInquiry(context.Background(), validInquiry(), opts))
	mailer.AssertNumberOfCalls(t, "Send", 4)
}

func TestSubmitInquiryCompletesClaimOnlyAfterDelivery(t *testing.T) {
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.Anything).Return(nil)
	dedup := new(MockDedupStore)
	dedup.On("Claim", mock.Anything, "k", mock.Anything).Return(domain.ClaimAcquired, nil)
	dedup.On("Complete", mock.Anything, "k", 24*time.Hour).Return(nil)
	uc := newUsecase(mailer, dedup, nil, time.Second)

	require.NoError(t, uc.SubmitInquiry(context.Background(), validInquiry(), domain.SubmitOptions{RequestKey: "k"}))

	dedup.AssertExpectations(t)
	dedup.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
	// The pending claim is shorter than the retention of a delivered key.
	claimTTL := dedup.Calls[0].Arguments.Get(2).(time.Duration)
	assert.Less(t, claimTTL, 24*time.Hour)
}

func TestSubmitInquiryTimesOutStalledSend(t *testing.T) {
	mailer := new(MockMailer)
	stall := make(chan struct{})
	defer close(stall)
	mailer.On("Send", mock.Anything, to(operatorInbox)).Return(nil).Run(func(mock.Arguments) {
		<-stall // ignores ctx on purpose
	})
	mailer.On("Send", mock.Anything, to("a@acme.com")).Return(nil)
	uc := newUsecase(mailer, nil, nil, 50*time.Millisecond)

	start := time.Now()
	err := uc.SubmitInquiry(context.Background(), validInquiry(), domain.SubmitOptions{})

	require.ErrorIs(t, err, domain.ErrDispatch)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSubmitInquiryRequiresConfiguredMailer(t *testing.T) {
	mailer := &MockMailer{notConfigured: true}
	uc := newUsecase(mailer, nil, nil, time.Second)

	err := uc.SubmitInquiry(context.Background(), validInquiry(), domain.SubmitOptions{})

	require.ErrorIs(t, err, domain.ErrMailerNotConfigured)
	assert.False(t, uc.Ready())
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSubmitInquiryPublishesEvent(t *testing.T) {
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.Anything).Return(nil)
	pub := &recordingPublisher{events: make(chan domain.InquiryDispatched, 1)}
	uc := newUsecase(mailer, nil, pub, time.Second)

	require.NoError(t, uc.SubmitInquiry(context.Background(), validInquiry(), domain.SubmitOptions{RequestID: "req-7"}))

	select {
	case ev := <-pub.events:
		assert.Equal(t, "req-7", ev.RequestID)
		assert.Equal(t, "Acme", ev.OrganizationName)
		assert.Equal(t, "acme.com", ev.EmailDomain)
	case <-time.After(2 * time.Second):
		t.Fatal("no inquiry event published")
	}
}

func TestHealthReady(t *testing.T) {
	h := usecase.NewHealthUsecase(
		usecase.ReadyCheck{Name: "redis", Check: func(context.Context) error { return nil }},
		usecase.ReadyCheck{Name: "postgres", Check: func(context.Context) error { return errors.New("refused") }},
	)

	result, ok := h.Ready(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "ok", result["redis"])
	assert.Equal(t, "refused", result["postgres"])
	assert.Equal(t, "ok", h.Check(context.Background())["status"])
}
