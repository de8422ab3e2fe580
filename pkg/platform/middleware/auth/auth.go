// Package auth holds the guard middleware that stands in front of protected
// routes. A request either leaves a guard with an Identity in its context or
// is answered with 401 and never reaches the next handler.
package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"usergate/pkg/domain"
	"usergate/pkg/requestcontext"
)

// Challenge bodies returned on guard failure.
const (
	BearerChallenge  = "Token is not valid or expired"
	SessionChallenge = "Session is missing or invalid"
)

// JWTValidator defines the interface for validating bearer tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	Subject string
	Email   string
	Name    string
	JTI     string
}

// SessionReader decodes the browser session carried by a request.
type SessionReader interface {
	ReadSession(r *http.Request) (*SessionClaims, error)
}

// SessionClaims is what a decoded session cookie yields.
type SessionClaims struct {
	State string
}

// Option tunes a guard.
type Option func(*guardOptions)

type guardOptions struct {
	onFailure func(reason string)
}

// WithFailureHook registers a callback run on every rejected request,
// typically a metrics counter.
func WithFailureHook(fn func(reason string)) Option {
	return func(o *guardOptions) {
		o.onFailure = fn
	}
}

func newGuardOptions(opts []Option) guardOptions {
	var o guardOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func (o guardOptions) fail(reason string) {
	if o.onFailure != nil {
		o.onFailure(reason)
	}
}

// GetIdentity retrieves the authenticated principal from the request context.
func GetIdentity(r *http.Request) domain.Identity {
	return requestcontext.Identity(r.Context())
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth admits requests carrying "Authorization: Bearer <jwt>" that the
// validator accepts.
func RequireAuth(validator JWTValidator, logger *slog.Logger, opts ...Option) func(http.Handler) http.Handler {
	o := newGuardOptions(opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
					"client_ip", requestcontext.ClientIP(ctx),
				)
				o.fail("missing_token")
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", BearerChallenge)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
					"client_ip", requestcontext.ClientIP(ctx),
				)
				o.fail("invalid_token")
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", BearerChallenge)
				return
			}

			ctx = requestcontext.WithIdentity(ctx, domain.Identity{
				Subject: claims.Subject,
				Email:   claims.Email,
				Name:    claims.Name,
				Source:  domain.IdentitySourceBearer,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession admits requests carrying a valid browser session cookie.
func RequireSession(reader SessionReader, logger *slog.Logger, opts ...Option) func(http.Handler) http.Handler {
	o := newGuardOptions(opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			claims, err := reader.ReadSession(r)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid session",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
					"client_ip", requestcontext.ClientIP(ctx),
				)
				o.fail("invalid_session")
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", SessionChallenge)
				return
			}

			ctx = requestcontext.WithIdentity(ctx, domain.Identity{
				SessionID: claims.State,
				Source:    domain.IdentitySourceSession,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the credentials of a Bearer authorization header.
// The scheme name is case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
