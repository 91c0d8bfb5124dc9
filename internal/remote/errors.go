package remote

import "fmt"

// StatusError is returned when the API answers with a non-success status.
// It is a retryable transport failure.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote returned %s", e.Status)
}

// ParseError is returned when a response body cannot be decoded.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
