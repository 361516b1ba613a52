package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/fivetwenty-io/notion-client/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrEmptyCredential = errors.New("integration token is empty")
)

// Credential is an integration token. It formats as a mask so that it never
// leaks through logs or error messages.
type Credential string

// NewCredential trims and validates a raw token.
func NewCredential(token string) (Credential, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrEmptyCredential
	}

	return Credential(token), nil
}

// String returns a masked representation.
func (c Credential) String() string {
	if c == "" {
		return ""
	}

	return constants.MaskedSecret
}

// GoString returns a masked representation for %#v.
func (c Credential) GoString() string {
	return c.String()
}

// Secret returns the raw token for the Authorization header.
func (c Credential) Secret() string {
	return string(c)
}

// TokenManager supplies the bearer token for each request.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
}

// StaticTokenManager always returns the same credential. Integration tokens
// do not expire, so there is nothing to refresh.
type StaticTokenManager struct {
	credential Credential
}

// NewStaticTokenManager wraps a credential.
func NewStaticTokenManager(credential Credential) *StaticTokenManager {
	return &StaticTokenManager{credential: credential}
}

// GetToken returns the credential.
func (m *StaticTokenManager) GetToken(ctx context.Context) (string, error) {
	if m.credential == "" {
		return "", ErrEmptyCredential
	}

	return m.credential.Secret(), nil
}
