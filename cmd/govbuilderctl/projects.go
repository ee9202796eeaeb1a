package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/govbuilder/engine/internal/models"
	"github.com/govbuilder/engine/internal/store"
)

func newProjectsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List, discover and create projects",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List recently opened projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printProjects(a.projects().Recent(cmd.Context()))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "scan",
		Short: "List projects under the configured root directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := a.projects().Scan(cmd.Context())
			if err != nil {
				return err
			}
			return a.printProjects(found)
		},
	})

	var parent string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project folder with a starter document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.projects().Create(cmd.Context(), args[0], parent)
			if err != nil {
				return err
			}
			return a.printProjects([]models.ProjectSummary{sess.Summary()})
		},
	}
	create.Flags().StringVar(&parent, "parent", "", "Parent directory (default: configured root directory)")
	cmd.AddCommand(create)

	return cmd
}

func newProjectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Work on a single project folder",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate <dir>",
		Short: "Rewrite a project document in the current schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed, err := store.Upgrade(a.fs(), args[0])
			if err != nil {
				return err
			}
			if changed {
				fmt.Fprintf(a.out, "%s upgraded\n", args[0])
			} else {
				fmt.Fprintf(a.out, "%s already current\n", args[0])
			}
			return nil
		},
	})
	return cmd
}

func (a *app) printProjects(list []models.ProjectSummary) error {
	return a.printOutput(list, func(w io.Writer) {
		rows := make([][]string, 0, len(list))
		for _, p := range list {
			rows = append(rows, []string{p.Name, p.Path})
		}
		printTable(w, []string{"name", "path"}, rows)
	})
}
