package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/softdeskhq/softdesk/internal/apperror"
	"github.com/softdeskhq/softdesk/internal/auth"
	"github.com/softdeskhq/softdesk/internal/service"
)

// UserHandler serves profile reads and self-service profile mutation.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// actorID pulls the authenticated user from the request context. The auth
// middleware guarantees it on protected routes; the fallback guards
// against wiring mistakes.
func actorID(r *http.Request) (string, error) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return "", apperror.Unauthenticated("valid authentication required")
	}
	return id, nil
}

// pagination reads ?limit= and ?offset= query params; zero values let the
// service apply its defaults.
func pagination(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

// HandleGet returns one profile through the visibility gate.
//
// HTTP: GET /api/users/{id}?contact=true
// The contact flag requests contact-level detail, which needs the
// target's CanBeContacted consent on top of CanDataBeShared.
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	withContact := r.URL.Query().Get("contact") == "true"

	view, err := h.users.Get(r.Context(), actor, chi.URLParam(r, "id"), withContact)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleList returns the caller's profile plus every data-sharing user.
//
// HTTP: GET /api/users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	limit, offset := pagination(r)
	views, err := h.users.List(r.Context(), actor, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

type updateProfileRequest struct {
	Username        *string `json:"username"`
	DateOfBirth     *string `json:"date_of_birth"`
	CanBeContacted  *bool   `json:"can_be_contacted"`
	CanDataBeShared *bool   `json:"can_data_be_shared"`
}

// HandleUpdate edits the caller's own profile.
//
// HTTP: PATCH /api/users/{id}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	in := service.UpdateProfileInput{
		Username:        req.Username,
		CanBeContacted:  req.CanBeContacted,
		CanDataBeShared: req.CanDataBeShared,
	}
	if req.DateOfBirth != nil {
		dob, err := time.Parse(dateFormat, *req.DateOfBirth)
		if err != nil {
			writeError(w, apperror.ValidationFailed("date_of_birth",
				"date_of_birth must be in YYYY-MM-DD format"))
			return
		}
		in.DateOfBirth = &dob
	}

	view, err := h.users.Update(r.Context(), actor, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleDelete removes the caller's own account.
//
// HTTP: DELETE /api/users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.users.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
