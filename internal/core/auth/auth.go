// Package auth supplies bearer tokens for the progress API. Token absence is
// a precondition failure for sync, not a transport error; callers route the
// affected operations to the offline outbox instead of retrying.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoToken indicates no token is currently available.
var ErrNoToken = errors.New("no auth token available")

// TokenProvider yields the current bearer token, or ErrNoToken when absent.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Static returns a fixed token. Useful for tests and one-shot CLI calls.
type Static string

// Token implements TokenProvider.
func (s Static) Token(_ context.Context) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// Env reads the token from an environment variable on every call.
type Env string

// Token implements TokenProvider.
func (e Env) Token(_ context.Context) (string, error) {
	tok := strings.TrimSpace(os.Getenv(string(e)))
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

// File reads the token from a file on every call, so an externally refreshed
// token is picked up without restarting the engine.
type File string

// Token implements TokenProvider.
func (f File) Token(_ context.Context) (string, error) {
	data, err := os.ReadFile(string(f))
	if os.IsNotExist(err) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}

	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}
