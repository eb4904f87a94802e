package console

import (
	"errors"
	"fmt"

	"github.com/flowsilicon/keyconsole/internal/httpclient"
)

// ErrCancelled is returned when the user cancels an operation at a confirmation prompt
var ErrCancelled = errors.New("operation cancelled")

// ValidationError is a local rejection. The backend was not contacted and
// the cache is unchanged.
type ValidationError struct {
	Op     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// RemoteError is a backend failure, either a non-2xx status or a transport error
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a local validation failure
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalid(op, format string, args ...any) *ValidationError {
	return &ValidationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// reason extracts the part of err worth showing to a user: the backend's own
// message when there is one, the full error otherwise
func reason(err error) string {
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	return err.Error()
}
