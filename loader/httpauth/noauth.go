package httpauth

import (
	"context"
	"net/http"
)

// NoAuth leaves requests untouched. It is the default for HTTP loaders.
type NoAuth struct{}

// NewNoAuth creates a NoAuth authenticator.
func NewNoAuth() *NoAuth {
	return &NoAuth{}
}

// Authenticate does nothing.
func (n *NoAuth) Authenticate(req *http.Request) error {
	return nil
}

// AuthenticateWithContext does nothing, but still fails once ctx is done.
func (n *NoAuth) AuthenticateWithContext(ctx context.Context, req *http.Request) error {
	return withContext(ctx, req, n.Authenticate)
}

// Name returns the name of the authentication method.
func (n *NoAuth) Name() string {
	return "None"
}
