// ABOUTME: Error types returned by the chat backend client
// ABOUTME: Separates transport/status failures from application-reported failures

package chatapi

import (
	"errors"
	"fmt"
)

// ErrBadEnvelope is returned when a history body is not the canonical object envelope.
var ErrBadEnvelope = errors.New("unsupported history envelope")

// ErrNoChatContainer is returned when the chat page has no #chat-container element.
var ErrNoChatContainer = errors.New("chat container not found in page")

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Code     int
	Message  string // "error" field of a JSON body, if any
	Location string // redirect target for 3xx responses
}

func (e *StatusError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("server returned status %d: %s", e.Code, e.Message)
	case e.Location != "":
		return fmt.Sprintf("server returned status %d: redirected to %s", e.Code, e.Location)
	default:
		return fmt.Sprintf("server returned status %d", e.Code)
	}
}

// AppError reports a failure the backend described in a successful response.
type AppError struct {
	Op      string
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// IsUnauthorized reports whether err is a 401 or a redirect away from an
// endpoint that requires a login.
func IsUnauthorized(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == 401 || (se.Code >= 300 && se.Code < 400)
}
