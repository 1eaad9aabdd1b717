package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDeviceUnavailable = errors.New("camera unavailable")
	ErrTransport         = errors.New("transport error")
	ErrServer            = errors.New("server error")
	ErrEmptyResult       = errors.New("no valid value/unit found")
	ErrFetch             = errors.New("fetch error")
	ErrValidation        = errors.New("validation error")
	ErrConfiguration     = errors.New("configuration error")
)

// Kind classifies a failure for status display and retry decisions.
type Kind int

const (
	KindNone Kind = iota
	KindDeviceUnavailable
	KindTransport
	KindServer
	KindEmptyResult
	KindFetch
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindDeviceUnavailable:
		return "device_unavailable"
	case KindTransport:
		return "transport"
	case KindServer:
		return "server"
	case KindEmptyResult:
		return "empty_result"
	case KindFetch:
		return "fetch"
	default:
		return "other"
	}
}

// Retryable reports whether the capture loop schedules an automatic retry for
// this kind of failure.
func (k Kind) Retryable() bool {
	switch k {
	case KindTransport, KindServer, KindEmptyResult:
		return true
	default:
		return false
	}
}

// ServerError carries the error text returned by the extraction service in a
// success:false response.
type ServerError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "request rejected"
	}
	if e.Operation == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Operation, msg)
}

// Unwrap ties ServerError to the ErrServer marker.
func (e *ServerError) Unwrap() error { return ErrServer }

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an error onto its Kind. A nil error is KindNone. Fetch
// failures win over the server or transport cause they wrap.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrDeviceUnavailable):
		return KindDeviceUnavailable
	case errors.Is(err, ErrFetch):
		return KindFetch
	case errors.Is(err, ErrServer):
		return KindServer
	case errors.Is(err, ErrEmptyResult):
		return KindEmptyResult
	case errors.Is(err, ErrTransport):
		return KindTransport
	default:
		return KindOther
	}
}

// Message returns the text shown to the user for err. Server errors show the
// server's own text; everything else shows the full error chain.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		if msg := strings.TrimSpace(serverErr.Message); msg != "" {
			return msg
		}
	}
	return err.Error()
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
