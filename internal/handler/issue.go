package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/softdeskhq/softdesk/internal/model"
	"github.com/softdeskhq/softdesk/internal/service"
)

// IssueHandler serves issue CRUD and the status transition endpoint.
type IssueHandler struct {
	issues *service.IssueService
	logger *slog.Logger
}

// NewIssueHandler creates an IssueHandler.
func NewIssueHandler(issues *service.IssueService, logger *slog.Logger) *IssueHandler {
	return &IssueHandler{issues: issues, logger: logger}
}

type createIssueRequest struct {
	Project     string `json:"project"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Assignee    string `json:"assignee"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Tag         string `json:"tag"`
}

// HandleCreate files an issue on a project. Contributors only; the
// assignee, when given, must be a contributor too.
//
// HTTP: POST /api/issues
func (h *IssueHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createIssueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	view, err := h.issues.Create(r.Context(), actor, service.CreateIssueInput{
		ProjectID:   req.Project,
		Title:       req.Title,
		Description: req.Description,
		Assignee:    req.Assignee,
		Status:      model.IssueStatus(req.Status),
		Priority:    model.IssuePriority(req.Priority),
		Tag:         model.IssueTag(req.Tag),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

// HandleList returns every issue the requester can see.
//
// HTTP: GET /api/issues
func (h *IssueHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	limit, offset := pagination(r)
	views, err := h.issues.List(r.Context(), actor, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

// HandleGet returns a single issue.
//
// HTTP: GET /api/issues/{id}
func (h *IssueHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := h.issues.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

type updateIssueRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Assignee    *string `json:"assignee"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	Tag         *string `json:"tag"`
}

// HandleUpdate edits issue fields. Issue author only.
//
// HTTP: PATCH /api/issues/{id}
func (h *IssueHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateIssueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	in := service.UpdateIssueInput{
		Title:       req.Title,
		Description: req.Description,
		Assignee:    req.Assignee,
	}
	if req.Status != nil {
		s := model.IssueStatus(*req.Status)
		in.Status = &s
	}
	if req.Priority != nil {
		p := model.IssuePriority(*req.Priority)
		in.Priority = &p
	}
	if req.Tag != nil {
		t := model.IssueTag(*req.Tag)
		in.Tag = &t
	}

	view, err := h.issues.Update(r.Context(), actor, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateStatus moves an issue through the workflow. The current
// assignee may call this as well as the author.
//
// HTTP: PATCH /api/issues/{id}/update_status
func (h *IssueHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	view, err := h.issues.UpdateStatus(r.Context(), actor, chi.URLParam(r, "id"), model.IssueStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleDelete removes an issue and its comments. Issue author only.
//
// HTTP: DELETE /api/issues/{id}
func (h *IssueHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.issues.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
