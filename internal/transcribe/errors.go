package transcribe

import "fmt"

// Kind classifies a submission failure.
type Kind int

const (
	// KindNetwork is a transport-level rejection: the request never
	// produced an HTTP response.
	KindNetwork Kind = iota
	// KindServer is a response the service flagged as an error, usually a
	// non-2xx status with a server-supplied message.
	KindServer
	// KindMalformed is a response that could not be parsed as the expected
	// shape. Displayed like a server error.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error is a classified submission failure. Message is safe to show to the
// user; the underlying cause is available through Unwrap.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s error", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}
