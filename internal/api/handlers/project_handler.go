package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/govbuilder/engine/internal/api/types"
	"github.com/govbuilder/engine/internal/services"
)

// ProjectHandler serves the open project's document and remote settings.
type ProjectHandler struct {
	workspace *Workspace
}

func NewProjectHandler(ws *Workspace) *ProjectHandler {
	return &ProjectHandler{workspace: ws}
}

// Get returns the document; the ETag is its version and If-None-Match is honored.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	var (
		view    types.ProjectView
		version string
	)
	err := h.workspace.With(func(sess *services.Session) error {
		data, v, err := sess.Document().Snapshot()
		if err != nil {
			return err
		}
		summary := sess.Summary()
		view = types.ProjectView{Name: summary.Name, Path: summary.Path, Document: json.RawMessage(data)}
		version = v
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	etag := `"` + version + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: view, Meta: &types.Meta{Version: version}})
}

func (h *ProjectHandler) ConfigureRemote(w http.ResponseWriter, r *http.Request) {
	var req types.RemoteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	var out map[string]any
	err := h.workspace.With(func(sess *services.Session) error {
		url, err := sess.ConfigureRemote(req.URL)
		if err != nil {
			return err
		}
		out = map[string]any{"stagingUrl": url, "apiConfigured": url != ""}
		setVersion(w, sess)
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, out)
}

func setVersion(w http.ResponseWriter, sess *services.Session) {
	if v := sess.Document().Version(); v != "" {
		w.Header().Set("ETag", `"`+v+`"`)
	}
}
