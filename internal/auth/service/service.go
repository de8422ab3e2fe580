// Package service drives the browser login: it binds a fresh OAuth state to
// the caller's destination, sends the browser to the provider, and turns the
// provider callback into a session.
package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"usergate/internal/auth/models"
	dErrors "usergate/pkg/domain-errors"
	"usergate/pkg/platform/sentinel"
	pkgstrings "usergate/pkg/platform/strings"
	"usergate/pkg/requestcontext"

	"golang.org/x/oauth2"
)

// DefaultRedirect is used whenever no live binding exists for a state.
const DefaultRedirect = "/"

// InvalidAccessTokenMessage is the description sent with every rejected callback.
const InvalidAccessTokenMessage = "Invalid access token."

const stateBytes = 32

// Exchanger talks to the OAuth2 provider.
type Exchanger interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// StateStore holds state to redirect bindings until the callback consumes them.
type StateStore interface {
	Put(ctx context.Context, state, redirectURL string) error
	Take(ctx context.Context, state string) (string, error)
}

// LoginMetrics records login outcomes.
type LoginMetrics interface {
	IncrementLoginStarted()
	IncrementLoginCompleted(outcome string)
}

// Login outcomes reported to LoginMetrics.
const (
	OutcomeSuccess        = "success"
	OutcomeProviderError  = "provider_error"
	OutcomeMissingCode    = "missing_code"
	OutcomeExchangeFailed = "exchange_failed"
)

// CallbackParams are the query parameters the provider sends back.
type CallbackParams struct {
	State string
	Code  string
	Error string
}

type Service struct {
	exchanger Exchanger
	states    StateStore
	logger    *slog.Logger
	metrics   LoginMetrics
	newState  func() (string, error)
	// absolute redirect targets are admitted only on these origins
	redirectOrigins map[string]struct{}
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m LoginMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithStateGenerator replaces the random state source, for tests.
func WithStateGenerator(fn func() (string, error)) Option {
	return func(s *Service) {
		if fn != nil {
			s.newState = fn
		}
	}
}

// WithRedirectOrigins admits absolute redirect targets whose scheme and host
// match one of origins. Same-site relative paths are always admitted.
func WithRedirectOrigins(origins []string) Option {
	return func(s *Service) {
		for _, o := range pkgstrings.NormalizeOrigins(origins) {
			s.redirectOrigins[o] = struct{}{}
		}
	}
}

func New(exchanger Exchanger, states StateStore, opts ...Option) *Service {
	s := &Service{
		exchanger: exchanger,
		states:    states,
		logger:    slog.Default(),
		newState:  GenerateState,

		redirectOrigins: make(map[string]struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// GenerateState returns 32 random bytes encoded as unpadded base64url.
func GenerateState() (string, error) {
	buf := make([]byte, stateBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// BeginLogin mints a state, binds redirectURL to it when one was given, and
// returns the provider URL to send the browser to.
func (s *Service) BeginLogin(ctx context.Context, redirectURL string) (string, error) {
	state, err := s.newState()
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to start login")
	}

	if redirectURL != "" && !s.redirectAllowed(redirectURL) {
		s.logger.WarnContext(ctx, "redirect target not allowed, ignoring",
			"redirect_url", redirectURL,
			"request_id", requestcontext.RequestID(ctx),
			"client_ip", requestcontext.ClientIP(ctx),
		)
		redirectURL = ""
	}

	if redirectURL != "" {
		if err := s.states.Put(ctx, state, redirectURL); err != nil {
			s.logger.ErrorContext(ctx, "failed to bind login state",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to start login")
		}
	}

	if s.metrics != nil {
		s.metrics.IncrementLoginStarted()
	}
	return s.exchanger.AuthCodeURL(state), nil
}

// redirectAllowed admits rooted relative paths and absolute URLs on a
// configured origin. Scheme-relative and backslash forms are refused since
// browsers resolve them to another host.
func (s *Service) redirectAllowed(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme == "" && u.Host == "" {
		return strings.HasPrefix(raw, "/") &&
			!strings.HasPrefix(raw, "//") &&
			!strings.HasPrefix(raw, "/\\")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	_, ok := s.redirectOrigins[strings.ToLower(u.Scheme+"://"+u.Host)]
	return ok
}

// CompleteLogin exchanges the authorization code and resolves where the
// browser goes next. Any failure to obtain an access token rejects the login
// regardless of state.
func (s *Service) CompleteLogin(ctx context.Context, params CallbackParams) (*models.LoginResult, error) {
	if params.Error != "" {
		return nil, s.reject(ctx, OutcomeProviderError, errors.New("provider returned "+params.Error))
	}
	if params.Code == "" {
		return nil, s.reject(ctx, OutcomeMissingCode, errors.New("authorization code missing"))
	}

	token, err := s.exchanger.Exchange(ctx, params.Code)
	if err != nil {
		return nil, s.reject(ctx, OutcomeExchangeFailed, err)
	}

	session := models.Session{
		State:    params.State,
		IssuedAt: requestcontext.Now(ctx),
	}
	if token != nil {
		session.Token = token.AccessToken
	}
	if !session.Valid() {
		return nil, s.reject(ctx, OutcomeExchangeFailed, errors.New("empty access token"))
	}

	if s.metrics != nil {
		s.metrics.IncrementLoginCompleted(OutcomeSuccess)
	}
	return &models.LoginResult{
		Session:     session,
		RedirectURL: s.resolveRedirect(ctx, params.State),
	}, nil
}

func (s *Service) resolveRedirect(ctx context.Context, state string) string {
	if state == "" {
		return DefaultRedirect
	}
	redirect, err := s.states.Take(ctx, state)
	if err != nil {
		if errors.Is(err, sentinel.ErrExpired) {
			s.logger.InfoContext(ctx, "state binding expired, using default redirect",
				"request_id", requestcontext.RequestID(ctx),
			)
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "state lookup failed, using default redirect",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		return DefaultRedirect
	}
	if redirect == "" {
		return DefaultRedirect
	}
	return redirect
}

func (s *Service) reject(ctx context.Context, outcome string, cause error) error {
	s.logger.WarnContext(ctx, "login rejected",
		"outcome", outcome,
		"error", cause,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementLoginCompleted(outcome)
	}
	return dErrors.Wrap(cause, dErrors.CodeUnauthorized, InvalidAccessTokenMessage)
}
