package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/softdeskhq/softdesk/internal/service"
)

// CommentHandler serves comment CRUD.
type CommentHandler struct {
	comments *service.CommentService
	logger   *slog.Logger
}

// NewCommentHandler creates a CommentHandler.
func NewCommentHandler(comments *service.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: logger}
}

type createCommentRequest struct {
	Issue   string `json:"issue"`
	Content string `json:"content"`
}

// HandleCreate posts a comment on an issue. Contributors of the issue's
// project only.
//
// HTTP: POST /api/comments
func (h *CommentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	view, err := h.comments.Create(r.Context(), actor, req.Issue, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

// HandleList returns every comment the requester can see.
//
// HTTP: GET /api/comments
func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	limit, offset := pagination(r)
	views, err := h.comments.List(r.Context(), actor, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

// HandleGet returns a single comment.
//
// HTTP: GET /api/comments/{id}
func (h *CommentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := h.comments.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

// HandleUpdate rewrites a comment's content. Comment author only.
//
// HTTP: PATCH /api/comments/{id}
func (h *CommentHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	view, err := h.comments.Update(r.Context(), actor, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleDelete removes a comment. Comment author only.
//
// HTTP: DELETE /api/comments/{id}
func (h *CommentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.comments.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
