package httpauth

import (
	"context"
	"maps"
	"net/http"
)

// HeaderAuth sets arbitrary headers, e.g. API keys or bearer tokens.
type HeaderAuth struct {
	Headers map[string]string
}

// NewHeaderAuth creates a HeaderAuth authenticator. The map is copied, so
// later changes by the caller are not seen.
func NewHeaderAuth(headers map[string]string) *HeaderAuth {
	return &HeaderAuth{
		Headers: maps.Clone(headers),
	}
}

// NewBearerAuth sets "Authorization: Bearer <token>".
func NewBearerAuth(token string) *HeaderAuth {
	return &HeaderAuth{
		Headers: map[string]string{
			"Authorization": "Bearer " + token,
		},
	}
}

// Authenticate sets every configured header on req, replacing existing values.
func (h *HeaderAuth) Authenticate(req *http.Request) error {
	for key, value := range h.Headers {
		req.Header.Set(key, value)
	}
	return nil
}

// AuthenticateWithContext is Authenticate, refusing once ctx is done.
func (h *HeaderAuth) AuthenticateWithContext(ctx context.Context, req *http.Request) error {
	return withContext(ctx, req, h.Authenticate)
}

// Name returns the name of the authentication method.
func (h *HeaderAuth) Name() string {
	return "Header"
}
