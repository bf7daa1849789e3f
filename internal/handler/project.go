package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/softdeskhq/softdesk/internal/model"
	"github.com/softdeskhq/softdesk/internal/service"
)

// ProjectHandler serves project CRUD and contributor management.
type ProjectHandler struct {
	projects *service.ProjectService
	logger   *slog.Logger
}

// NewProjectHandler creates a ProjectHandler.
func NewProjectHandler(projects *service.ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

type createProjectRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Type         string   `json:"type"`
	Contributors []string `json:"contributors"`
}

// HandleCreate creates a project; the caller becomes author and implicit
// contributor, and the named contributors are registered atomically.
//
// HTTP: POST /api/projects
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	detail, err := h.projects.Create(r.Context(), actor, service.CreateProjectInput{
		Name:         req.Name,
		Description:  req.Description,
		Type:         model.ProjectType(req.Type),
		Contributors: req.Contributors,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, detail)
}

// HandleList returns the reduced shape of every visible project.
//
// HTTP: GET /api/projects
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	limit, offset := pagination(r)
	summaries, err := h.projects.List(r.Context(), actor, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}

// HandleGet returns the full project shape with nested issue summaries.
//
// HTTP: GET /api/projects/{id}
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	detail, err := h.projects.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

type updateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Type        *string `json:"type"`
}

// HandleUpdate edits project fields. Author only.
//
// HTTP: PATCH /api/projects/{id}
func (h *ProjectHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	in := service.UpdateProjectInput{Name: req.Name, Description: req.Description}
	if req.Type != nil {
		t := model.ProjectType(*req.Type)
		in.Type = &t
	}

	detail, err := h.projects.Update(r.Context(), actor, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// HandleDelete removes a project and everything under it. Author only.
//
// HTTP: DELETE /api/projects/{id}
func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.projects.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type contributorsRequest struct {
	Contributors []string `json:"contributors"`
}

// HandleAddContributors registers contributors by username. Author only;
// idempotent per username.
//
// HTTP: POST /api/projects/{id}/add_contributors
func (h *ProjectHandler) HandleAddContributors(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req contributorsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	added, err := h.projects.AddContributors(r.Context(), actor, chi.URLParam(r, "id"), req.Contributors)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{"added": added})
}

// HandleRemoveContributors drops contributor memberships by username.
// Author only.
//
// HTTP: POST /api/projects/{id}/remove_contributors
func (h *ProjectHandler) HandleRemoveContributors(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req contributorsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	removed, err := h.projects.RemoveContributors(r.Context(), actor, chi.URLParam(r, "id"), req.Contributors)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{"removed": removed})
}
