package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/softdeskhq/softdesk/internal/apperror"
	"github.com/softdeskhq/softdesk/internal/auth"
	"github.com/softdeskhq/softdesk/internal/service"
)

// dateFormat is the wire format for dates of birth.
const dateFormat = "2006-01-02"

// AuthHandler serves registration, token issuance/refresh, and password
// change.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authSvc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authSvc, logger: logger}
}

type registerRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	Password2       string `json:"password2"`
	DateOfBirth     string `json:"date_of_birth"`
	CanBeContacted  bool   `json:"can_be_contacted"`
	CanDataBeShared bool   `json:"can_data_be_shared"`
}

type registerResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// HandleRegister creates a new account.
//
// HTTP: POST /api/register
// 201 with {id, username} on success; 400 on password mismatch, weak
// password, a taken username, or derived age under 15. The password never
// appears in the response or the logs.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	dob, err := time.Parse(dateFormat, req.DateOfBirth)
	if err != nil {
		writeError(w, apperror.ValidationFailed("date_of_birth",
			"date_of_birth must be in YYYY-MM-DD format"))
		return
	}

	user, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username:        req.Username,
		Password:        req.Password,
		Password2:       req.Password2,
		DateOfBirth:     dob,
		CanBeContacted:  req.CanBeContacted,
		CanDataBeShared: req.CanDataBeShared,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{ID: user.ID, Username: user.Username})
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleToken exchanges credentials for an access/refresh pair.
//
// HTTP: POST /api/token
func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	pair, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// HandleRefresh exchanges a refresh token for a fresh pair.
//
// HTTP: POST /api/token/refresh
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	pair, err := h.auth.Refresh(r.Context(), req.Refresh)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// HandleChangePassword rotates the caller's own password.
//
// HTTP: POST /api/users/{id}/change_password
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	actorID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	targetID := chi.URLParam(r, "id")
	if err := h.auth.ChangePassword(r.Context(), actorID, targetID, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}
