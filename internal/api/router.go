package api

import (
	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"

	"github.com/govbuilder/engine/internal/api/handlers"
	mw "github.com/govbuilder/engine/internal/api/middleware"
	"github.com/govbuilder/engine/internal/services"
)

type Dependencies struct {
	// HMACSecret enables bearer-token auth on /api/v1 when set.
	HMACSecret  []byte
	CORSOrigins []string
	DB          *gorm.DB

	Projects  services.ProjectService
	Sync      services.SyncService
	Hub       *services.ProgressHub
	Queue     handlers.Enqueuer
	Workspace *handlers.Workspace
}

func NewRouter(dep Dependencies) *chi.Mux {
	if dep.Workspace == nil {
		dep.Workspace = handlers.NewWorkspace()
	}
	if dep.Hub == nil {
		dep.Hub = services.NewProgressHub()
	}

	r := chi.NewRouter()

	// Built-in middleware
	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.CORS(dep.CORSOrigins))
	r.Use(mw.RateLimit(20, 40))

	// Health endpoints
	hh := handlers.NewHealthHandler(dep.DB)
	r.Get("/healthz", hh.Liveness)
	r.Get("/readyz", hh.Readiness)

	sh := handlers.NewSettingsHandler(dep.Projects)
	ph := handlers.NewProjectsHandler(dep.Projects, dep.Workspace)
	doc := handlers.NewProjectHandler(dep.Workspace)
	ch := handlers.NewCollectionsHandler(dep.Workspace)
	sync := handlers.NewSyncHandler(dep.Workspace, dep.Sync, dep.Hub, dep.Queue)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(mw.Auth(dep.HMACSecret))

		// the websocket stays outside the compressed group
		api.Get("/sync/progress", sync.Progress)

		api.Group(func(g chi.Router) {
			g.Use(chimid.Compress(5))

			g.Get("/settings", sh.Get)
			g.Put("/settings", sh.Update)

			g.Route("/projects", func(pr chi.Router) {
				pr.Get("/", ph.List)
				pr.Post("/", ph.Create)
				pr.Delete("/", ph.Forget)
				pr.Get("/scan", ph.Scan)
				pr.Post("/open", ph.Open)
			})

			g.Route("/project", func(pr chi.Router) {
				pr.Get("/", doc.Get)
				pr.Put("/remote", doc.ConfigureRemote)

				pr.Route("/{collection}", func(cr chi.Router) {
					cr.Get("/", ch.List)
					cr.Post("/", ch.Create)
					cr.Get("/new", ch.New)
					cr.Post("/import", ch.Import)
					cr.Get("/{id}", ch.Get)
					cr.Put("/{id}", ch.Update)
					cr.Delete("/{id}", ch.Delete)
				})
			})

			g.Post("/sync", sync.Run)
			g.Get("/sync/runs", sync.Runs)
		})
	})

	return r
}
