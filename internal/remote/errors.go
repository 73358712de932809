package remote

import (
	"errors"
)

// Kind separates transport-class failures from responses that could not be parsed.
type Kind int

const (
	KindTransport Kind = iota
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

const (
	PredictUnavailableMessage = "Backend error. Is Flask running?"
	MetricsUnavailableMessage = "Failed to load metrics (backend issue)."
	MalformedResponseMessage  = "malformed response"
)

// ServiceError is the only error type returned by Client operations. Message is safe to
// show to the user; Err keeps the underlying cause for logs.
type ServiceError struct {
	Op      string
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// UserMessage extracts a display string from err, falling back when it carries none.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		if svcErr.Message != "" {
			return svcErr.Message
		}
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
