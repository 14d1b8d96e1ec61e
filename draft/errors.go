package draft

import (
	"errors"

	"github.com/omakasem/draftstream/types"
)

// Kind classifies session errors for outcome determination.
type Kind int

const (
	// KindConnect indicates the stream could not be opened.
	KindConnect Kind = iota
	// KindRead indicates a transport failure after the stream opened.
	KindRead
	// KindParse indicates the accumulated draft did not parse at completion.
	KindParse
	// KindPersist indicates the update-session call failed.
	KindPersist
	// KindCanceled indicates the caller canceled the session.
	KindCanceled
)

// String returns the telemetry name of the kind.
func (k Kind) String() string {
	return string(k.ErrorKind())
}

// ErrorKind maps the kind onto the serialized outcome kind.
func (k Kind) ErrorKind() types.ErrorKind {
	switch k {
	case KindConnect:
		return types.ErrorKindConnect
	case KindRead:
		return types.ErrorKindRead
	case KindParse:
		return types.ErrorKindParse
	case KindPersist:
		return types.ErrorKindPersist
	default:
		return types.ErrorKindCanceled
	}
}

var (
	// ErrStreamStalled is returned when no bytes arrive within the stall timeout.
	ErrStreamStalled = errors.New("stream stalled")
	// ErrNoContent is returned when a draft stream ends without any content.
	ErrNoContent = errors.New("stream ended without draft content")
	// ErrNoPlan is returned when an enrichment stream ends without a plan.
	ErrNoPlan = errors.New("stream ended without a plan")
	// ErrUpstream wraps the message of an upstream "error" event.
	ErrUpstream = errors.New("upstream error")
	// ErrAlreadyStarted is returned when a session is run twice.
	ErrAlreadyStarted = errors.New("session already started")
)

// StreamError classifies a session failure.
type StreamError struct {
	// Kind is the failure class.
	Kind Kind
	// Err is the underlying error.
	Err error
}

func (e *StreamError) Error() string {
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a classified error.
func KindOf(err error) (Kind, bool) {
	var se *StreamError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return 0, false
}

func isKind(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

// IsConnectError returns true if the stream could not be opened.
func IsConnectError(err error) bool { return isKind(err, KindConnect) }

// IsReadError returns true if the stream failed mid-flight.
func IsReadError(err error) bool { return isKind(err, KindRead) }

// IsParseError returns true if the draft failed to parse at completion.
func IsParseError(err error) bool { return isKind(err, KindParse) }

// IsPersistError returns true if the draft parsed but could not be persisted.
func IsPersistError(err error) bool { return isKind(err, KindPersist) }

// IsCanceled returns true if the session was canceled by its caller.
func IsCanceled(err error) bool { return isKind(err, KindCanceled) }
