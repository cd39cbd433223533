package httpauth

import (
	"context"
	"net/http"
)

// BasicAuth sets an RFC 7617 Authorization header.
// An empty username disables it.
type BasicAuth struct {
	Username string
	Password string
}

// NewBasicAuth creates a BasicAuth authenticator for the given credentials.
func NewBasicAuth(username, password string) *BasicAuth {
	return &BasicAuth{
		Username: username,
		Password: password,
	}
}

// Authenticate sets the Authorization header on req. Nothing is set when the
// username is empty.
func (b *BasicAuth) Authenticate(req *http.Request) error {
	if b.Username != "" {
		req.SetBasicAuth(b.Username, b.Password)
	}
	return nil
}

// AuthenticateWithContext is Authenticate, refusing once ctx is done.
func (b *BasicAuth) AuthenticateWithContext(ctx context.Context, req *http.Request) error {
	return withContext(ctx, req, b.Authenticate)
}

// Name returns the name of the authentication method.
func (b *BasicAuth) Name() string {
	return "Basic"
}
