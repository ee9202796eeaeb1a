package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/govbuilder/engine/internal/models"
	"github.com/govbuilder/engine/internal/repository"
	"github.com/govbuilder/engine/internal/services"
	"github.com/govbuilder/engine/internal/store"
	"github.com/govbuilder/engine/pkg/config"
	"github.com/govbuilder/engine/pkg/database"
	"github.com/govbuilder/engine/pkg/logger"
)

// app carries what every command needs. cfg is loaded on first use unless preset.
type app struct {
	cfg       *config.Config
	out       io.Writer
	outputFmt string
	dataDir   string
	logLevel  string
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "govbuilderctl",
		Short: "Manage GovBuilder projects from the command line",
		Long: `govbuilderctl works directly on project folders: it lists and creates
projects, upgrades project documents, inspects collections and runs or
queues a sync against a GovBuilt staging instance.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetOut(a.out)

	root.PersistentFlags().StringVarP(&a.outputFmt, "output", "o", "table", "Output format: table, json, yaml")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "Override DATA_DIR (settings, recent projects, sync history)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level written to stderr")

	root.AddCommand(newProjectsCmd(a))
	root.AddCommand(newProjectCmd(a))
	root.AddCommand(newEntitiesCmd(a))
	root.AddCommand(newSyncCmd(a))
	root.AddCommand(newTokenCmd(a))
	return root
}

func (a *app) init() error {
	if a.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	if a.dataDir != "" {
		// A history database derived from the old data dir follows the override.
		derived := "sqlite://" + filepath.ToSlash(filepath.Join(a.cfg.DataDir, "sync-history.db"))
		if a.cfg.DatabaseURL == derived {
			a.cfg.DatabaseURL = "sqlite://" + filepath.ToSlash(filepath.Join(a.dataDir, "sync-history.db"))
		}
		a.cfg.DataDir = a.dataDir
	}
	if _, err := logger.InitWriter(os.Stderr, a.logLevel, "console"); err != nil {
		return err
	}
	return nil
}

func (a *app) fs() store.FileSystem { return store.OSFileSystem{} }

func (a *app) projects() services.ProjectService {
	return services.NewProjectService(a.fs(), store.NewAppFiles(a.fs(), a.cfg.DataDir))
}

// history opens the sync history database. History is best effort for the
// CLI: a database that cannot be opened disables it.
func (a *app) history(ctx context.Context) repository.SyncRunRepository {
	db, err := database.Open(ctx, a.cfg.DatabaseURL, database.Options{})
	if err != nil {
		logger.L().Warn("sync history unavailable", zap.Error(err))
		return nil
	}
	if err := db.AutoMigrate(&models.SyncRun{}); err != nil {
		logger.L().Warn("sync history unavailable", zap.Error(err))
		return nil
	}
	return repository.NewSyncRunRepository(db)
}
