package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"usergate/internal/auth/models"
	"usergate/internal/auth/service"
	dErrors "usergate/pkg/domain-errors"
	authmw "usergate/pkg/platform/middleware/auth"
	"usergate/pkg/platform/httputil"
	"usergate/pkg/requestcontext"
)

// Service defines the login operations the handler drives.
type Service interface {
	BeginLogin(ctx context.Context, redirectURL string) (string, error)
	CompleteLogin(ctx context.Context, params service.CallbackParams) (*models.LoginResult, error)
}

// SessionCodec writes, reads and clears the browser session cookie.
type SessionCodec interface {
	authmw.SessionReader
	Write(w http.ResponseWriter, session models.Session) error
	Clear(w http.ResponseWriter)
}

// Handler serves the browser login endpoints.
type Handler struct {
	logger   *slog.Logger
	auth     Service
	sessions SessionCodec
	guard    []authmw.Option
}

// New creates a new auth Handler. guardOpts tune the session guard on
// GET /session.
func New(auth Service, sessions SessionCodec, logger *slog.Logger, guardOpts ...authmw.Option) *Handler {
	return &Handler{
		logger:   logger,
		auth:     auth,
		sessions: sessions,
		guard:    guardOpts,
	}
}

// Register registers the login routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/login", h.handleLogin)
	r.Get("/callback", h.handleCallback)
	r.Get("/logout", h.handleLogout)
	r.With(authmw.RequireSession(h.sessions, h.logger, h.guard...)).Get("/session", h.handleSession)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	authURL, err := h.auth.BeginLogin(ctx, r.URL.Query().Get("redirectUrl"))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to begin login",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	result, err := h.auth.CompleteLogin(ctx, service.CallbackParams{
		State: query.Get("state"),
		Code:  query.Get("code"),
		Error: query.Get("error"),
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{
				Error:            string(dErrors.CodeUnauthorized),
				ErrorDescription: service.InvalidAccessTokenMessage,
			})
			return
		}
		h.logger.ErrorContext(ctx, "failed to complete login",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if err := h.sessions.Write(w, result.Session); err != nil {
		h.logger.ErrorContext(ctx, "failed to write session cookie",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to establish session"))
		return
	}

	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	http.Redirect(w, r, service.DefaultRedirect, http.StatusFound)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, authmw.GetIdentity(r))
}
