package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/citizen-portaal/portaal-backend/config"
	"github.com/citizen-portaal/portaal-backend/internal/projects/repository"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func pendingCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List projects waiting on analysis, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServiceDB(cmd.Context(), func(ctx context.Context, cfg *config.Config, db *sql.DB) error {
				projects, err := repository.NewProjectRepository(db).ListPending(ctx, limit)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(projects)
				}

				now := time.Now()
				tw := table.NewWriter()
				tw.SetOutputMirror(cmd.OutOrStdout())
				tw.AppendHeader(table.Row{"ID", "Projectnaam", "Created by", "Age", "Overdue"})
				for _, p := range projects {
					age := now.Sub(p.CreatedAt)
					overdue := ""
					if age > cfg.Analysis.Ceiling {
						overdue = "yes"
					}
					tw.AppendRow(table.Row{p.ID, p.Name, p.CreatedBy, age.Round(time.Second), overdue})
				}
				tw.AppendFooter(table.Row{"", "", "", "total", len(projects)})
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows, 0 for all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}
