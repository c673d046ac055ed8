// Package inquiryform is the client side of the inquiry flow: a small state
// machine that owns the form fields and guarantees at most one submission in
// flight.
package inquiryform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"medhive-backend/pkg/contract"

	"github.com/google/uuid"
)

type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
)

// Field names match the JSON keys posted to the server.
type Field string

const (
	FieldOrganizationName Field = "orgName"
	FieldEmail            Field = "email"
	FieldInquiry          Field = "inquiry"
)

var (
	ErrNotEditable      = errors.New("form is not editable in its current state")
	ErrSubmitInProgress = errors.New("a submission is already in flight")
	ErrMissingField     = errors.New("all fields are required")
	ErrUnknownField     = errors.New("unknown form field")
)

// Dispatcher sends the payload. *Client implements it.
type Dispatcher interface {
	SubmitInquiry(ctx context.Context, req contract.InquiryRequest, idempotencyKey string) (contract.SuccessBody, error)
}

// Alerter shows a blocking notification to the user.
type Alerter interface {
	Alert(message string)
}

type AlerterFunc func(message string)

func (f AlerterFunc) Alert(message string) { f(message) }

// Snapshot is everything a view needs to render the form.
type Snapshot struct {
	State        State
	Fields       contract.InquiryRequest
	Disabled     bool
	Busy         bool
	Confirmation string
}

type Controller struct {
	dispatcher Dispatcher
	alerter    Alerter
	newKey     func() string

	mu         sync.Mutex
	state      State
	fields     contract.InquiryRequest
	submitted  contract.InquiryRequest
	requestKey string
}

func NewController(dispatcher Dispatcher, alerter Alerter) *Controller {
	if alerter == nil {
		alerter = AlerterFunc(func(string) {})
	}
	return &Controller{
		dispatcher: dispatcher,
		alerter:    alerter,
		newKey:     uuid.NewString,
		state:      StateIdle,
	}
}

// SetField updates one input. Only allowed while idle.
func (c *Controller) SetField(field Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return ErrNotEditable
	}
	switch field {
	case FieldOrganizationName:
		c.fields.OrgName = value
	case FieldEmail:
		c.fields.Email = value
	case FieldInquiry:
		c.fields.Inquiry = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// Submit dispatches the current fields and blocks until the server answers.
// On failure the form returns to idle with its values intact and the user is
// alerted; the same idempotency key is reused by the next attempt.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateSubmitting:
		c.mu.Unlock()
		return ErrSubmitInProgress
	case StateSuccess:
		c.mu.Unlock()
		return ErrNotEditable
	}
	if field, ok := missingField(c.fields); !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	if c.requestKey == "" {
		c.requestKey = c.newKey()
	}
	payload, key := c.fields, c.requestKey
	c.state = StateSubmitting
	c.mu.Unlock()

	_, err := c.dispatcher.SubmitInquiry(ctx, payload, key)

	c.mu.Lock()
	if err != nil {
		c.state = StateIdle
		c.mu.Unlock()
		c.alerter.Alert(alertMessage(err))
		return err
	}
	c.state = StateSuccess
	c.submitted = payload
	c.fields = contract.InquiryRequest{}
	c.requestKey = ""
	c.mu.Unlock()
	return nil
}

// Reset is the "send another" action: success back to idle with empty fields.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateSuccess {
		return ErrNotEditable
	}
	c.state = StateIdle
	c.fields = contract.InquiryRequest{}
	c.submitted = contract.InquiryRequest{}
	c.requestKey = ""
	return nil
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		State:    c.state,
		Fields:   c.fields,
		Disabled: c.state == StateSubmitting,
		Busy:     c.state == StateSubmitting,
	}
	if c.state == StateSuccess {
		s.Confirmation = fmt.Sprintf(
			"Thank you, %s! We received your inquiry and will reply to %s shortly.",
			c.submitted.OrgName, c.submitted.Email,
		)
	}
	return s
}

func missingField(f contract.InquiryRequest) (Field, bool) {
	switch {
	case strings.TrimSpace(f.OrgName) == "":
		return FieldOrganizationName, false
	case strings.TrimSpace(f.Email) == "":
		return FieldEmail, false
	case strings.TrimSpace(f.Inquiry) == "":
		return FieldInquiry, false
	}
	return "", true
}

func alertMessage(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		return fmt.Sprintf("We could not send your inquiry (%s). Your message has been kept, please try again.", statusErr.Message)
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return "We could not reach the server. Check your connection and try again; your message has been kept."
	}
	return "We could not send your inquiry. Your message has been kept, please try again."
}
