package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/kg-pipeline/internal/repository"
	"github.com/joseph-ayodele/kg-pipeline/internal/server"
)

func (c *cli) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current status of the pipeline and directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			lifecycle := newLifecycle(c.cfg, c.logger)
			if err := lifecycle.EnsureDirectories(); err != nil {
				return err
			}
			stats, err := lifecycle.Stats()
			if err != nil {
				return err
			}

			fmt.Fprintln(out, "Singapore Math KG Pipeline Status")
			fmt.Fprintln(out)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "Location\tPDFs\tSize\tPath")
			for _, s := range stats {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", s.Name, s.Files, humanize.Bytes(uint64(s.Bytes)), s.Path)
			}
			_ = tw.Flush()
			fmt.Fprintln(out)

			creds := c.cfg.Credentials()
			tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "Service\tStatus")
			fmt.Fprintf(tw, "OpenAI\t%s\n", pick(creds.OpenAI, "✓ Configured", "✗ Missing OPENAI_API_KEY"))
			fmt.Fprintf(tw, "Graph store\t%s\n", c.graphStatus(cmd))
			fmt.Fprintf(tw, "Mathpix\t%s\n", pick(creds.Mathpix, "✓ Configured", "⚠ Will use local text fallback"))
			_ = tw.Flush()

			if n := stats[0].Files; n > 0 {
				fmt.Fprintf(out, "\nRun 'kgpipeline process' to process %d file(s)\n", n)
			}
			return nil
		},
	}
}

// graphStatus probes the store and reports how many documents it holds.
func (c *cli) graphStatus(cmd *cobra.Command) string {
	db, err := server.ConnectGraph(cmd.Context(), graphRepoConfig(c.cfg), c.logger)
	if err != nil {
		return "✗ Unreachable: " + truncate(err.Error(), 80)
	}
	defer func() { _ = db.Close() }()

	if err := server.PingGraph(cmd.Context(), db, c.logger, 3*time.Second); err != nil {
		return "✗ Unreachable: " + truncate(err.Error(), 80)
	}
	n, err := repository.NewGraphRepository(db, c.logger).CountDocuments(cmd.Context())
	if err != nil {
		return "⚠ Reachable, count failed"
	}
	return fmt.Sprintf("✓ %s (%d documents indexed)", db.Dialect(), n)
}
