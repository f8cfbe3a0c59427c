package remote

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidURL     = errors.New("invalid log URL")
	ErrAuthFailed     = errors.New("authentication failed")
	ErrLogNotFound    = errors.New("build log not found")
	ErrNetworkTimeout = errors.New("network timeout")
)

// UserError wraps errors with user-friendly messages.
type UserError struct {
	Message string
	Hint    string
	Err     error
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n\nDetails: %v", e.Err)
	}
	return msg
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// WrapError converts fetch errors to user-friendly messages.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrInvalidURL) {
		return &UserError{
			Message: "Invalid build log URL",
			Hint:    "Pass the full http(s) URL of a raw build log, e.g.\n  https://readthedocs.org/api/v2/build/12345.txt",
			Err:     err,
		}
	}

	if errors.Is(err, ErrAuthFailed) {
		return &UserError{
			Message: "Authentication failed",
			Hint:    "Set DOCSIFT_FETCH_TOKEN to a token with access to the build log.",
			Err:     err,
		}
	}

	if errors.Is(err, ErrLogNotFound) {
		return &UserError{
			Message: "Build log not found",
			Hint:    "Check that the build URL is correct and the log has not expired.",
			Err:     err,
		}
	}

	return err
}
