package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/govbuilder/engine/internal/govbuilt"
	"github.com/govbuilder/engine/internal/models"
	"github.com/govbuilder/engine/internal/queue/tasks"
	"github.com/govbuilder/engine/internal/services"
	appErr "github.com/govbuilder/engine/pkg/errors"
)

func newSyncCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull collections from a GovBuilt staging instance",
	}
	cmd.AddCommand(newSyncRunCmd(a), newSyncEnqueueCmd(a), newSyncHistoryCmd(a))
	return cmd
}

func newSyncRunCmd(a *app) *cobra.Command {
	var baseURL, fixture string
	cmd := &cobra.Command{
		Use:   "run <dir>",
		Short: "Run one sync pass in this process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := services.OpenSession(a.fs(), args[0])
			if err != nil {
				return err
			}

			opts := services.SyncOptions{BaseURL: baseURL, Trigger: "cli"}
			if fixture != "" {
				src, err := govbuilt.LoadFileSource(fixture)
				if err != nil {
					return err
				}
				opts.Source = src
			}

			svc := services.NewSyncService(
				services.HTTPSourceFactory(a.cfg.FetchTimeout, a.cfg.FetchRPS),
				a.history(cmd.Context()),
			)
			report, err := svc.Sync(cmd.Context(), sess, opts)
			if err != nil {
				return err
			}
			if err := a.printReport(report); err != nil {
				return err
			}
			if report.Failed > 0 {
				return appErr.Newf(appErr.CodeUnavailable, "%d of %d content types failed", report.Failed, len(report.Results))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "", "Base URL overriding the project's staging URL")
	cmd.Flags().StringVar(&fixture, "fixture", "", "Read content items from a YAML or JSON fixture instead of the network")
	return cmd
}

func newSyncEnqueueCmd(a *app) *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "enqueue <dir>",
		Short: "Queue a sync pass for the worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.RedisAddr == "" {
				return appErr.New(appErr.CodeConfiguration, "REDIS_ADDR is not set")
			}
			task, err := tasks.NewSyncTask(tasks.SyncPayload{ProjectPath: args[0], BaseURL: baseURL, Trigger: "cli"})
			if err != nil {
				return err
			}
			client := asynq.NewClient(asynq.RedisClientOpt{Addr: a.cfg.RedisAddr, Password: a.cfg.RedisPassword})
			defer client.Close()

			info, err := client.EnqueueContext(cmd.Context(), task)
			if err != nil {
				return appErr.Wrap(err, appErr.CodeUnavailable, "enqueue sync")
			}
			fmt.Fprintf(a.out, "queued %s on %s\n", info.ID, info.Queue)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "", "Base URL overriding the project's staging URL")
	return cmd
}

func newSyncHistoryCmd(a *app) *cobra.Command {
	var project string
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded sync passes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs := a.history(cmd.Context())
			if runs == nil {
				return appErr.New(appErr.CodeUnavailable, "sync history database is unavailable")
			}
			list, err := services.NewSyncService(nil, runs).History(cmd.Context(), project, limit)
			if err != nil {
				return err
			}
			return a.printOutput(list, func(w io.Writer) {
				rows := make([][]string, 0, len(list))
				for _, r := range list {
					rows = append(rows, runRow(r))
				}
				printTable(w, []string{"started", "project", "trigger", "ok", "failed", "url"}, rows)
			})
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "Only runs for this project path")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to show")
	return cmd
}

func runRow(r models.SyncRun) []string {
	return []string{
		r.StartedAt.Local().Format("2006-01-02 15:04:05"),
		truncate(r.ProjectPath, 40),
		r.Trigger,
		strconv.Itoa(r.Succeeded),
		strconv.Itoa(r.Failed),
		r.BaseURL,
	}
}

func (a *app) printReport(report *services.SyncReport) error {
	return a.printOutput(report, func(w io.Writer) {
		rows := make([][]string, 0, len(report.Results))
		for _, r := range report.Results {
			state := "ok"
			if !r.Success {
				state = "failed"
			}
			note := r.Error
			if note == "" && len(r.Unresolved) > 0 {
				note = "unresolved: " + strings.Join(r.Unresolved, ",")
			}
			rows = append(rows, []string{
				r.ContentType, state,
				strconv.Itoa(r.Fetched), strconv.Itoa(r.Added), strconv.Itoa(r.Updated),
				truncate(note, 60),
			})
		}
		printTable(w, []string{"content type", "status", "fetched", "added", "updated", "note"}, rows)
	})
}
