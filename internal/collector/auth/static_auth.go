package auth

import (
	"net/http"
)

// StaticAuthenticator is a development-only authenticator that accepts any alp_ key.
type StaticAuthenticator struct{}

func NewStaticAuthenticator() *StaticAuthenticator {
	return &StaticAuthenticator{}
}

func (a *StaticAuthenticator) Authenticate(r *http.Request) (*ClientContext, error) {
	token, err := ExtractBearerToken(r)
	if err != nil {
		return nil, err
	}
	// Accept any alp_ prefixed key with a static client ID
	return &ClientContext{
		ClientID: "static-" + token[:8],
		ReadOnly: true,
	}, nil
}
