// Package auth validates bearer tokens for the collector's query API.
// Ingest is deliberately unauthenticated; only reads are guarded.
package auth

import (
	"errors"
	"net/http"
	"strings"
)

// Authenticator validates incoming requests and returns a ClientContext.
type Authenticator interface {
	Authenticate(r *http.Request) (*ClientContext, error)
}

// ClientContext holds the authenticated API client's identity.
type ClientContext struct {
	ClientID string
	ReadOnly bool
}

// ErrUnauthenticated is returned when no valid credentials are found.
var ErrUnauthenticated = errors.New("unauthenticated")

// ExtractBearerToken extracts an alp_ API key from the Authorization
// header.
func ExtractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrUnauthenticated
	}
	token := header
	token = strings.TrimPrefix(token, "Bearer ")
	token = strings.TrimPrefix(token, "bearer ")
	if !strings.HasPrefix(token, "alp_") {
		return "", ErrUnauthenticated
	}
	return token, nil
}
