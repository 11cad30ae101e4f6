package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/kg-pipeline/internal/export"
	"github.com/joseph-ayodele/kg-pipeline/internal/repository"
	"github.com/joseph-ayodele/kg-pipeline/internal/server"
)

func (c *cli) newExportCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the knowledge graph to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := server.ConnectGraph(cmd.Context(), graphRepoConfig(c.cfg), c.logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			svc := export.NewService(repository.NewGraphRepository(db, c.logger), c.logger)
			raw, err := svc.ExportGraphXLSX(cmd.Context())
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, raw, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", outPath, humanize.Bytes(uint64(len(raw))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "graph.xlsx", "Output workbook path")
	return cmd
}
