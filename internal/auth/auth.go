package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Mode selects the authentication strategy for incoming requests.
type Mode string

const (
	// ModeJWKS verifies bearer JWTs against a JWKS endpoint.
	ModeJWKS Mode = "jwks"
	// ModeNoop skips signature verification and treats the bearer token as the
	// user ID. Local development and tests only.
	ModeNoop Mode = "noop"
)

// Config captures the inputs required to initialize a verifier.
type Config struct {
	Mode     Mode
	JWKSURL  string
	Audience string
	Issuer   string
}

// AuthenticatedUser is the subject extracted from the request credentials.
type AuthenticatedUser struct {
	UserID    string
	SessionID string
	ExpiresAt int64
	Token     string
}

// Verifier validates a credential and resolves the acting user.
type Verifier interface {
	Verify(ctx context.Context, token string) (AuthenticatedUser, error)
}

// NewVerifier constructs the Verifier matching the configured mode.
func NewVerifier(cfg Config) (Verifier, error) {
	switch cfg.Mode {
	case ModeJWKS:
		return newJWKSVerifier(cfg)
	case ModeNoop:
		return newNoopVerifier(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", cfg.Mode)
	}
}

type ctxKey string

const userCtxKey ctxKey = "nofapers:user"

var errNoCredentials = errors.New("missing or malformed credentials")

// Middleware rejects requests without a verifiable identity and stores the
// resolved user on the request context.
func Middleware(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			token, err := tokenFromRequest(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			user, err := verifier.Verify(r.Context(), token)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userCtxKey, user)))
		})
	}
}

// tokenFromRequest prefers the X-User-ID header (service-to-service calls),
// then falls back to the Authorization bearer token.
func tokenFromRequest(r *http.Request) (string, error) {
	if userID := r.Header.Get("X-User-ID"); userID != "" {
		return userID, nil
	}

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errNoCredentials
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errNoCredentials
	}
	return token, nil
}

// UserFromContext extracts the authenticated user stored by Middleware.
func UserFromContext(ctx context.Context) (AuthenticatedUser, bool) {
	user, ok := ctx.Value(userCtxKey).(AuthenticatedUser)
	return user, ok
}
