package telegram

import (
	"errors"
	"fmt"
)

var (
	// ErrSendFailed matches every transport or Bot API rejection.
	ErrSendFailed = errors.New("telegram: could not send notification")
	// ErrDecodeFailed matches response bodies that are not a JSON object.
	ErrDecodeFailed = errors.New("telegram: could not decode response")
	// ErrNoToken is returned when neither the client nor the message carries a bot token.
	ErrNoToken = errors.New("telegram token is empty")
	// ErrNoClient is returned when a message is sent without a transport.
	ErrNoClient = errors.New("telegram client is nil")
)

// SendError wraps the cause of a failed Bot API call.
type SendError struct {
	Method string
	Err    error
}

func (e *SendError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("%s: %v", ErrSendFailed, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrSendFailed, e.Method, e.Err)
}

func (e *SendError) Unwrap() []error { return []error{ErrSendFailed, e.Err} }

// DecodeError is returned when a successful call carried a malformed body.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("%s: %v", ErrDecodeFailed, e.Err) }

func (e *DecodeError) Unwrap() []error { return []error{ErrDecodeFailed, e.Err} }

func sendFailed(method string, err error) error {
	var se *SendError
	if errors.As(err, &se) {
		return err
	}
	return &SendError{Method: method, Err: err}
}
