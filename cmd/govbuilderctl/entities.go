package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/govbuilder/engine/internal/services"
)

func newEntitiesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entities",
		Short: "Inspect project collections",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list <dir> <collection>",
		Short: "List the members of a collection",
		Long:  "Collections: statuses, licenseStatuses, caseTypes, licenseTypes, subtypes, licenseSubTypes,\ninspectionTypes, accountingDetails, workflows, inspectionWorkflows, licenseWorkflows.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := services.OpenSession(a.fs(), args[0])
			if err != nil {
				return err
			}
			c, err := sess.Repos.Collection(args[1])
			if err != nil {
				return err
			}
			return a.printEntities(c.List())
		},
	})
	return cmd
}

// printEntities renders any collection; the table shows the common columns.
func (a *app) printEntities(list any) error {
	return a.printOutput(list, func(w io.Writer) {
		data, _ := json.Marshal(list)
		var items []map[string]any
		_ = json.Unmarshal(data, &items)

		rows := make([][]string, 0, len(items))
		for _, item := range items {
			label := text(item["title"])
			if label == "" {
				label = text(item["name"])
			}
			rows = append(rows, []string{text(item["id"]), truncate(label, 48), text(item["govbuiltContentItemId"])})
		}
		printTable(w, []string{"id", "title", "remote id"}, rows)
	})
}

func text(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
