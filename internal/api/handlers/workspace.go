package handlers

import (
	"sync"

	"github.com/govbuilder/engine/internal/services"
	appErr "github.com/govbuilder/engine/pkg/errors"
)

// Workspace holds the one project open in this server. Handlers run
// against it one at a time.
type Workspace struct {
	mu   sync.Mutex
	sess *services.Session
}

func NewWorkspace() *Workspace { return &Workspace{} }

// Set replaces the open project.
func (ws *Workspace) Set(sess *services.Session) {
	ws.mu.Lock()
	ws.sess = sess
	ws.mu.Unlock()
}

// Close forgets the open project if it lives at dir.
func (ws *Workspace) Close(dir string) {
	ws.mu.Lock()
	if ws.sess != nil && ws.sess.Dir() == dir {
		ws.sess = nil
	}
	ws.mu.Unlock()
}

// With runs fn with the open project while holding the workspace lock.
func (ws *Workspace) With(fn func(sess *services.Session) error) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.sess == nil {
		return appErr.New(appErr.CodeNotAProject, "no project is open")
	}
	return fn(ws.sess)
}
