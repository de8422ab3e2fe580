package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"usergate/internal/platform/middleware"
	"usergate/internal/user/models"
	dErrors "usergate/pkg/domain-errors"
	authmw "usergate/pkg/platform/middleware/auth"
	"usergate/pkg/platform/httputil"
	"usergate/pkg/platform/sentinel"
	"usergate/pkg/requestcontext"
)

// Store defines the user directory operations.
type Store interface {
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id int) (models.User, error)
	Add(ctx context.Context, req models.UserRequest) (models.User, error)
	Update(ctx context.Context, id int, req models.UserRequest) (models.User, error)
	Delete(ctx context.Context, id int) error
}

// Metrics records user directory activity.
type Metrics interface {
	IncrementUsersCreated()
}

const deletedMessage = "User deleted successfully"

// Handler serves the bearer-protected /users routes.
type Handler struct {
	logger       *slog.Logger
	users        Store
	metrics      Metrics
	jwtValidator authmw.JWTValidator
	guard        []authmw.Option
}

// New creates a new user Handler. metrics may be nil.
func New(
	users Store,
	logger *slog.Logger,
	metrics Metrics,
	jwtValidator authmw.JWTValidator,
	guardOpts ...authmw.Option) *Handler {
	return &Handler{
		logger:       logger,
		users:        users,
		metrics:      metrics,
		jwtValidator: jwtValidator,
		guard:        guardOpts,
	}
}

// Register registers the user routes behind the bearer guard.
func (h *Handler) Register(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Use(authmw.RequireAuth(h.jwtValidator, h.logger, h.guard...))
		r.Use(middleware.ContentTypeJSON)
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Post("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.writeStoreError(w, r, err, "failed to list users")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	user, err := h.users.Add(r.Context(), req)
	if err != nil {
		h.writeStoreError(w, r, err, "failed to create user")
		return
	}
	if h.metrics != nil {
		h.metrics.IncrementUsersCreated()
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, err, "failed to load user")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	user, err := h.users.Update(r.Context(), id, req)
	if err != nil {
		h.writeStoreError(w, r, err, "failed to update user")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		h.writeStoreError(w, r, err, "failed to delete user")
		return
	}
	httputil.WriteText(w, http.StatusOK, deletedMessage)
}

// parseID rejects non-integer ids before any store access.
func parseID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid user ID"))
		return 0, false
	}
	return id, true
}

func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request) (models.UserRequest, bool) {
	var req models.UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(r.Context(), "invalid user request",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return models.UserRequest{}, false
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return models.UserRequest{}, false
	}
	return req, true
}

func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, sentinel.ErrNotFound) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "User not found"))
		return
	}
	h.logger.ErrorContext(r.Context(), msg,
		"request_id", requestcontext.RequestID(r.Context()),
		"error", err.Error(),
	)
	httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, msg))
}
