package handlers

import (
	"net/http"

	"github.com/govbuilder/engine/internal/api/types"
	"github.com/govbuilder/engine/internal/models"
	"github.com/govbuilder/engine/internal/services"
)

type SettingsHandler struct {
	projects services.ProjectService
}

func NewSettingsHandler(projects services.ProjectService) *SettingsHandler {
	return &SettingsHandler{projects: projects}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.projects.Settings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, s)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req types.SettingsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.projects.UpdateSettings(r.Context(), models.Settings{RootDirectory: req.RootDirectory})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, s)
}
