package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/kg-pipeline/internal/common"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// cli carries what every subcommand needs after PersistentPreRunE.
type cli struct {
	cfg    *common.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	var dryRun bool

	root := &cobra.Command{
		Use:   "kgpipeline",
		Short: "Singapore Math knowledge graph pipeline",
		Long: "Processes math education PDFs from the inbox into a knowledge graph.\n" +
			"Without a subcommand the inbox is processed once.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := common.LoadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = common.NewLogger(cfg.Log, cmd.ErrOrStderr())
			slog.SetDefault(c.logger)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runProcess(cmd, dryRun)
		},
	}
	root.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Preview files without processing")

	root.AddCommand(
		c.newProcessCmd(),
		c.newStatusCmd(),
		c.newQueryCmd(),
		c.newWatchCmd(),
		c.newExportCmd(),
	)
	return root
}
