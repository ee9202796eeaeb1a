package handlers

import (
	"net/http"

	"github.com/govbuilder/engine/internal/api/types"
	"github.com/govbuilder/engine/internal/services"
	appErr "github.com/govbuilder/engine/pkg/errors"
)

// ProjectsHandler serves project discovery: recent list, root scan, create and open.
type ProjectsHandler struct {
	projects  services.ProjectService
	workspace *Workspace
}

func NewProjectsHandler(projects services.ProjectService, ws *Workspace) *ProjectsHandler {
	return &ProjectsHandler{projects: projects, workspace: ws}
}

func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	items := h.projects.Recent(r.Context())
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items, Meta: &types.Meta{Total: int64(len(items))}})
}

func (h *ProjectsHandler) Scan(w http.ResponseWriter, r *http.Request) {
	items, err := h.projects.Scan(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items, Meta: &types.Meta{Total: int64(len(items))}})
}

// Create makes a new project and opens it.
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.ProjectCreateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := h.projects.Create(r.Context(), req.Name, req.ParentDir)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.workspace.Set(sess)
	writeData(w, r, http.StatusCreated, sess.Summary())
}

func (h *ProjectsHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req types.ProjectOpenRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := h.projects.Open(r.Context(), req.Path)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.workspace.Set(sess)
	writeData(w, r, http.StatusOK, sess.Summary())
}

// Forget removes ?path= from the recent list and closes it if open.
func (h *ProjectsHandler) Forget(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, r, appErr.New(appErr.CodeInvalid, "path query parameter is required"))
		return
	}
	if err := h.projects.Forget(r.Context(), path); err != nil {
		writeError(w, r, err)
		return
	}
	h.workspace.Close(path)
	w.WriteHeader(http.StatusNoContent)
}
