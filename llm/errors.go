package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind says whether a failed call is worth repeating.
type ErrorKind int

const (
	// KindTransient covers network failures, 429 and 5xx. Retry, then fall back.
	KindTransient ErrorKind = iota + 1
	// KindFatal covers bad requests and auth failures. Stop the chain.
	KindFatal
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	}
	return "unknown"
}

// Error is a classified LLM call failure. Status is the HTTP status when
// the endpoint answered, 0 otherwise.
type Error struct {
	Kind   ErrorKind
	Status int
	Err    error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// NewTransientError marks err as retryable.
func NewTransientError(err error) error {
	return &Error{Kind: KindTransient, Err: err}
}

// NewFatalError marks err as not retryable.
func NewFatalError(err error) error {
	return &Error{Kind: KindFatal, Err: err}
}

func kindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsTransient reports whether err was classified as retryable.
func IsTransient(err error) bool { return kindOf(err) == KindTransient }

// IsFatal reports whether err was classified as not retryable.
func IsFatal(err error) bool { return kindOf(err) == KindFatal }

// ClassifyHTTPError turns a non-200 reply into an *Error. 429 and 5xx are
// transient; every other status needs a config fix. The body is cut to 200
// bytes.
func ClassifyHTTPError(statusCode int, body []byte) error {
	snippet := string(body)
	if len(snippet) > 200 {
		snippet = snippet[:200] + "..."
	}

	kind := KindFatal
	if statusCode == http.StatusTooManyRequests || statusCode >= 500 {
		kind = KindTransient
	}
	return &Error{
		Kind:   kind,
		Status: statusCode,
		Err:    fmt.Errorf("LLM API error (status %d): %s", statusCode, snippet),
	}
}
