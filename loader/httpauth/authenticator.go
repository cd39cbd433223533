// Package httpauth provides the credentials strategies used when a module is
// fetched over HTTP.
package httpauth

import (
	"context"
	"net/http"
)

// Authenticator applies credentials to an outgoing request in place.
type Authenticator interface {
	// Authenticate applies credentials to req.
	Authenticate(req *http.Request) error

	// AuthenticateWithContext is Authenticate, failing with ctx.Err() once
	// ctx is done.
	AuthenticateWithContext(ctx context.Context, req *http.Request) error

	// Name identifies the method in logs, never the credentials.
	Name() string
}

// withContext refuses to authenticate once ctx is done.
func withContext(ctx context.Context, req *http.Request, authFn func(*http.Request) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return authFn(req)
}
