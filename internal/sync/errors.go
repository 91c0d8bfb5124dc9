package sync

import "errors"

// Precondition failures. Neither is retryable: the affected operations go
// straight to the offline outbox and wait for the next opportunity.
var (
	// ErrOffline indicates the connectivity check failed.
	ErrOffline = errors.New("device is offline")

	// ErrAuthMissing indicates no bearer token is available.
	ErrAuthMissing = errors.New("no auth token available")
)
