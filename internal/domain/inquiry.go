package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"medhive-backend/pkg/email"
)

var (
	// ErrValidation: one or more required fields are missing.
	ErrValidation = errors.New("all fields are required")
	// ErrDispatch: at least one notification could not be delivered.
	ErrDispatch = errors.New("failed to send inquiry notifications")
	// ErrDuplicateInquiry: an earlier request with the same key was delivered.
	ErrDuplicateInquiry = errors.New("inquiry already received")
	// ErrInquiryInProgress: an earlier request with the same key is still sending.
	ErrInquiryInProgress = errors.New("inquiry with this key is still being processed")
	// ErrMailerNotConfigured: the mail provider has no credentials.
	ErrMailerNotConfigured = errors.New("email service is not configured")
)

// ValidationError names the fields that were missing or blank.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": missing " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Inquiry is a partnership/contact submission. It lives for one request.
type Inquiry struct {
	OrganizationName string `json:"orgName" validate:"notblank"`
	ContactEmail     string `json:"email" validate:"notblank"`
	Message          string `json:"inquiry" validate:"notblank"`
}

// Normalized returns a copy with surrounding whitespace removed.
func (i Inquiry) Normalized() Inquiry {
	return Inquiry{
		OrganizationName: strings.TrimSpace(i.OrganizationName),
		ContactEmail:     strings.TrimSpace(i.ContactEmail),
		Message:          strings.TrimSpace(i.Message),
	}
}

// RecipientRole selects which notification is rendered for an inquiry.
type RecipientRole string

const (
	RoleOperator RecipientRole = "operator"
	RoleInquirer RecipientRole = "inquirer"
)

// SubmitOptions carries request metadata alongside the payload.
type SubmitOptions struct {
	// RequestKey is the client-generated idempotency key. Empty disables dedup.
	RequestKey string
	RequestID  string
	ClientIP   string
}

// InquiryUsecase validates an inquiry and notifies operator and inquirer.
type InquiryUsecase interface {
	SubmitInquiry(ctx context.Context, inquiry Inquiry, opts SubmitOptions) error
	Ready() bool
}

// Mailer is the outbound mail collaborator.
type Mailer interface {
	Send(ctx context.Context, msg email.Message) error
	IsConfigured() bool
}

// ClaimStatus is the outcome of claiming a request key.
type ClaimStatus int

const (
	// ClaimAcquired: the caller owns the key and must Complete or Release it.
	ClaimAcquired ClaimStatus = iota
	// ClaimPending: another request holds the key and has not finished.
	ClaimPending
	// ClaimCompleted: a request with this key was already delivered.
	ClaimCompleted
)

// DedupStore remembers request keys so a replayed submission is not sent twice.
// A claim starts pending and only becomes completed after delivery.
type DedupStore interface {
	// Claim takes key as pending for ttl unless it is already held.
	Claim(ctx context.Context, key string, ttl time.Duration) (ClaimStatus, error)
	// Complete marks key delivered and keeps it for ttl.
	Complete(ctx context.Context, key string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// InquiryDispatched is published after both notifications went out.
type InquiryDispatched struct {
	RequestID        string    `json:"request_id"`
	OrganizationName string    `json:"organization_name"`
	EmailDomain      string    `json:"email_domain"`
	DispatchedAt     time.Time `json:"dispatched_at"`
}

// EventPublisher emits pipeline events. Failures never affect the response.
type EventPublisher interface {
	PublishInquiryDispatched(ctx context.Context, event InquiryDispatched) error
}
