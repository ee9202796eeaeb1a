package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/govbuilder/engine/internal/api/types"
	"github.com/govbuilder/engine/internal/queue/tasks"
	"github.com/govbuilder/engine/internal/services"
	appErr "github.com/govbuilder/engine/pkg/errors"
	"github.com/govbuilder/engine/pkg/logger"
)

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type SyncHandler struct {
	workspace *Workspace
	sync      services.SyncService
	hub       *services.ProgressHub
	queue     Enqueuer
	upgrader  websocket.Upgrader
}

// NewSyncHandler builds the handler; queue may be nil when no broker is configured.
func NewSyncHandler(ws *Workspace, sync services.SyncService, hub *services.ProgressHub, queue Enqueuer) *SyncHandler {
	return &SyncHandler{
		workspace: ws,
		sync:      sync,
		hub:       hub,
		queue:     queue,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the desktop webview connects from its own origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run synchronizes the open project, or queues the pass when async is requested.
func (h *SyncHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req types.SyncRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}

	if req.Async {
		h.enqueue(w, r, req)
		return
	}

	var report *services.SyncReport
	err := h.workspace.With(func(sess *services.Session) error {
		var err error
		report, err = h.sync.Sync(r.Context(), sess, services.SyncOptions{
			BaseURL:  req.BaseURL,
			Trigger:  "api",
			Progress: h.hub.Publish,
		})
		setVersion(w, sess)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, report)
}

func (h *SyncHandler) enqueue(w http.ResponseWriter, r *http.Request, req types.SyncRequest) {
	if h.queue == nil {
		writeError(w, r, appErr.New(appErr.CodeConfiguration, "no sync worker queue is configured"))
		return
	}
	var dir string
	if err := h.workspace.With(func(sess *services.Session) error {
		dir = sess.Dir()
		return nil
	}); err != nil {
		writeError(w, r, err)
		return
	}
	task, err := tasks.NewSyncTask(tasks.SyncPayload{ProjectPath: dir, BaseURL: req.BaseURL, Trigger: "api"})
	if err != nil {
		writeError(w, r, err)
		return
	}
	info, err := h.queue.EnqueueContext(r.Context(), task)
	if err != nil {
		writeError(w, r, appErr.Wrap(err, appErr.CodeUnavailable, "failed to enqueue sync"))
		return
	}
	logger.L().Info("sync queued", zap.String("project_path", dir), zap.String("task_id", info.ID))
	writeData(w, r, http.StatusAccepted, types.QueuedSync{TaskID: info.ID, Queue: info.Queue})
}

// Runs lists recent sync passes; ?project= filters by path, ?limit= caps the count.
func (h *SyncHandler) Runs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.sync.History(r.Context(), r.URL.Query().Get("project"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: runs, Meta: &types.Meta{Total: int64(len(runs))}})
}

// Progress streams SyncProgress messages over a websocket until the client leaves.
func (h *SyncHandler) Progress(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.L().Warn("progress upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	updates, cancel := h.hub.Subscribe()
	defer cancel()

	// The reader only notices the client closing.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()
	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case p, ok := <-updates:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(p); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}
