// Package contract holds the request/response shapes shared by the inquiry
// endpoint and its clients.
package contract

const (
	// Path is the inquiry endpoint on both the server and the serverless function.
	Path = "/api/contact"

	// IdempotencyHeader carries an optional client-generated request ID.
	IdempotencyHeader = "Idempotency-Key"

	RequestIDHeader = "X-Request-Id"
)

// Static response messages. Clients only branch on the status code; these
// strings are for display.
const (
	MsgEmailsSent         = "Emails sent successfully"
	MsgAlreadyReceived    = "Inquiry already received"
	MsgInProgress         = "Inquiry is still being processed. Please try again shortly."
	MsgFieldsRequired     = "All fields are required"
	MsgSendFailed         = "Failed to send email"
	MsgMethodNotAllowed   = "Method not allowed"
	MsgTooManyRequests    = "Too many requests"
	MsgServiceUnavailable = "Contact service temporarily unavailable"
	MsgUnexpected         = "An unexpected error occurred. Please try again later."
)

// InquiryRequest is the JSON body posted by the inquiry form.
type InquiryRequest struct {
	OrgName string `json:"orgName" example:"Acme Pharma"`
	Email   string `json:"email" example:"partner@acme.com"`
	Inquiry string `json:"inquiry" example:"We would like to discuss a partnership."`
}

// SuccessBody is returned with 2xx statuses.
type SuccessBody struct {
	Message string `json:"message"`
}

// ErrorBody is returned with 4xx and 5xx statuses.
type ErrorBody struct {
	Error string `json:"error"`
}
