package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/govbuilder/engine/internal/services"
	"github.com/govbuilder/engine/internal/store"
	"github.com/govbuilder/engine/pkg/config"
	"github.com/govbuilder/engine/pkg/database"
	"github.com/govbuilder/engine/pkg/logger"
)

func main() {
	projects := flag.Bool("projects", false, "also upgrade every project document under the configured root directory")
	flag.Parse()

	cfg := config.MustLoad()
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.DatabaseURL, database.Options{MaxRetries: 5})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := runMigrations(db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
	fmt.Fprintln(os.Stdout, "migrations completed")

	if !*projects {
		return
	}
	upgraded, err := upgradeProjects(ctx, store.OSFileSystem{}, cfg.DataDir)
	if err != nil {
		log.Fatal("project upgrade failed", zap.Error(err))
	}
	fmt.Fprintf(os.Stdout, "%d project documents upgraded\n", upgraded)
}

// upgradeProjects rewrites every project found under the root directory.
// A project that fails to load is logged and skipped.
func upgradeProjects(ctx context.Context, fsys store.FileSystem, dataDir string) (int, error) {
	svc := services.NewProjectService(fsys, store.NewAppFiles(fsys, dataDir))
	found, err := svc.Scan(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range found {
		changed, err := store.Upgrade(fsys, p.Path)
		if err != nil {
			logger.L().Warn("skipping project", zap.String("project_path", p.Path), zap.Error(err))
			continue
		}
		if changed {
			n++
		}
	}
	return n, nil
}
