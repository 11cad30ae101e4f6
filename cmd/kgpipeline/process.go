package main

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/kg-pipeline/internal/common"
	"github.com/joseph-ayodele/kg-pipeline/internal/core/pipeline"
)

func (c *cli) newProcessCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process all PDF files in the inbox directory",
		Long: "Parses every PDF in the inbox (OCR service or local fallback), extracts\n" +
			"curriculum entities into the knowledge graph, and moves each file to\n" +
			"archive/ or error/.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runProcess(cmd, dryRun)
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Preview files without processing")
	return cmd
}

func (c *cli) runProcess(cmd *cobra.Command, dryRun bool) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Singapore Math Knowledge Graph Pipeline")
	fmt.Fprintln(out, "Processing inbox for math education PDFs")
	fmt.Fprintln(out)

	a, err := buildApp(c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if dryRun {
		if err := a.lifecycle.EnsureDirectories(); err != nil {
			return err
		}
		pending, err := a.lifecycle.ListPending()
		if err != nil {
			return err
		}
		if len(pending) > 0 {
			fmt.Fprintf(out, "Would process %d file(s):\n", len(pending))
			for _, p := range pending {
				fmt.Fprintf(out, "  - %s\n", filepath.Base(p))
			}
		}
	} else {
		reportCredentials(out, c.cfg.Credentials())
	}

	sum, err := a.driver.RunOnce(cmd.Context(), dryRun)
	if err != nil {
		return err
	}
	if sum.Pending == 0 {
		fmt.Fprintln(out, "No PDF files found in inbox.")
		return nil
	}
	printResults(out, sum)
	return nil
}

// reportCredentials prints the configuration table, or an error line for each
// missing credential that stops the run.
func reportCredentials(out io.Writer, creds common.CredentialStatus) {
	if !creds.OpenAI {
		fmt.Fprintln(out, "Error: OPENAI_API_KEY not configured")
		return
	}
	printConfigStatus(out, creds)
	if !creds.Graph {
		fmt.Fprintln(out, "Error: GRAPH_DSN not configured")
	}
}

func printConfigStatus(out io.Writer, creds common.CredentialStatus) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Configuration Status")
	fmt.Fprintf(tw, "OpenAI\t%s\n", pick(creds.OpenAI, "Configured", "Missing"))
	fmt.Fprintf(tw, "Graph store\t%s\n", pick(creds.Graph, "Configured", "Missing"))
	fmt.Fprintf(tw, "Mathpix\t%s\n", pick(creds.Mathpix, "Configured", "Fallback mode"))
	_ = tw.Flush()
	fmt.Fprintln(out)
}

func printResults(out io.Writer, sum pipeline.Summary) {
	for _, r := range sum.Results {
		if r.Success {
			fmt.Fprintf(out, "✓ %s → archive/\n", r.SourceFile)
			concepts, strategies, problems := r.Entities.Counts()
			fmt.Fprintf(out, "  Extracted: %d concepts, %d strategies, %d problems\n", concepts, strategies, problems)
			continue
		}
		fmt.Fprintf(out, "✗ %s → error/\n", r.SourceFile)
		fmt.Fprintf(out, "  %s...\n", truncate(r.Error, 100))
	}

	if sum.DryRun {
		return
	}
	ok, failed := sum.Counts()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Summary  Success: %d | Errors: %d\n", ok, failed)
}

func pick(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
