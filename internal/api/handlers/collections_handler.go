package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/govbuilder/engine/internal/api/types"
	"github.com/govbuilder/engine/internal/repository"
	"github.com/govbuilder/engine/internal/services"
	appErr "github.com/govbuilder/engine/pkg/errors"
)

const maxBody = 8 << 20

// CollectionsHandler is CRUD over any collection of the open project,
// selected by the {collection} path parameter.
type CollectionsHandler struct {
	workspace *Workspace
}

func NewCollectionsHandler(ws *Workspace) *CollectionsHandler {
	return &CollectionsHandler{workspace: ws}
}

// with resolves the collection and runs fn; the result is encoded while the
// workspace is still locked.
func (h *CollectionsHandler) with(w http.ResponseWriter, r *http.Request, status int, fn func(sess *services.Session, c repository.Collection) (any, error)) {
	var out json.RawMessage
	err := h.workspace.With(func(sess *services.Session) error {
		c, err := sess.Repos.Collection(chi.URLParam(r, "collection"))
		if err != nil {
			return err
		}
		v, err := fn(sess, c)
		if err != nil {
			return err
		}
		if out, err = json.Marshal(v); err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "encode response")
		}
		setVersion(w, sess)
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, status, out)
}

func (h *CollectionsHandler) List(w http.ResponseWriter, r *http.Request) {
	h.with(w, r, http.StatusOK, func(_ *services.Session, c repository.Collection) (any, error) {
		return c.List(), nil
	})
}

// New returns an unsaved entity with defaults and a fresh id.
func (h *CollectionsHandler) New(w http.ResponseWriter, r *http.Request) {
	h.with(w, r, http.StatusOK, func(_ *services.Session, c repository.Collection) (any, error) {
		return c.New(), nil
	})
}

func (h *CollectionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.with(w, r, http.StatusOK, func(_ *services.Session, c repository.Collection) (any, error) {
		return c.Get(chi.URLParam(r, "id"))
	})
}

// Create saves the body; a body without id is appended with a fresh one.
func (h *CollectionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.with(w, r, http.StatusCreated, func(_ *services.Session, c repository.Collection) (any, error) {
		return c.Save(body)
	})
}

// Update saves the body under the id from the path.
func (h *CollectionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		writeError(w, r, appErr.New(appErr.CodeInvalid, "body must be a JSON object"))
		return
	}
	id, _ := json.Marshal(chi.URLParam(r, "id"))
	fields["id"] = id
	body, _ = json.Marshal(fields)

	h.with(w, r, http.StatusOK, func(_ *services.Session, c repository.Collection) (any, error) {
		if _, err := c.Get(chi.URLParam(r, "id")); err != nil {
			return nil, err
		}
		return c.Save(body)
	})
}

func (h *CollectionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.workspace.With(func(sess *services.Session) error {
		c, err := sess.Repos.Collection(chi.URLParam(r, "collection"))
		if err != nil {
			return err
		}
		if err := c.Remove(chi.URLParam(r, "id")); err != nil {
			return err
		}
		setVersion(w, sess)
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Import saves parsed rows as new entities; rejected rows are reported, not fatal.
func (h *CollectionsHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req types.ImportRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.with(w, r, http.StatusOK, func(sess *services.Session, c repository.Collection) (any, error) {
		return sess.Import(c.Kind(), req.Records)
	})
}

func readBody(r *http.Request) (json.RawMessage, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInvalid, "failed to read body")
	}
	if !json.Valid(data) {
		return nil, appErr.New(appErr.CodeInvalid, "invalid json")
	}
	return data, nil
}
