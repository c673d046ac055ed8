package security

import "go.uber.org/zap/zapcore"

// Severity is derived from EventType, never supplied by the caller.
type Severity string

const (
	SeverityINFO Severity = "INFO"
	SeverityWARN Severity = "WARN"
	SeverityHIGH Severity = "HIGH"
)

var eventSeverityMap = map[EventType]Severity{
	// Replays are expected when users double-submit or retry
	EventDuplicateInquiry: SeverityINFO,

	EventRateLimitTriggered: SeverityWARN,
	EventValidationFailed:   SeverityWARN,

	// Lost inquiries need an operator
	EventDispatchFailed: SeverityHIGH,
}

// SeverityOf returns the fixed severity of event, WARN when unmapped.
func SeverityOf(event EventType) Severity {
	if s, ok := eventSeverityMap[event]; ok {
		return s
	}
	return SeverityWARN
}

func (s Severity) level() zapcore.Level {
	switch s {
	case SeverityINFO:
		return zapcore.InfoLevel
	case SeverityHIGH:
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}
