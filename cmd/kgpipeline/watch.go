package main

import (
	"context"
	"fmt"
	"net"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/kg-pipeline/internal/ingest"
	"github.com/joseph-ayodele/kg-pipeline/internal/server"
)

func (c *cli) newWatchCmd() *cobra.Command {
	var noHealth bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Process the inbox whenever new PDFs arrive",
		Long: "Runs until interrupted. Files already in the inbox are processed at start.\n" +
			"A gRPC health endpoint reports the watcher status.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.lifecycle.EnsureDirectories(); err != nil {
				return err
			}

			health := server.NewHealth(c.logger)
			g, ctx := errgroup.WithContext(cmd.Context())
			if !noHealth {
				lis, err := net.Listen("tcp", c.cfg.Server.GRPCAddr)
				if err != nil {
					return fmt.Errorf("listen %s: %w", c.cfg.Server.GRPCAddr, err)
				}
				g.Go(func() error { return health.Serve(ctx, lis) })
			}
			g.Go(func() error { return c.watchLoop(ctx, cmd, a, health) })
			return g.Wait()
		},
	}
	cmd.Flags().BoolVar(&noHealth, "no-health", false, "Do not start the gRPC health endpoint")
	return cmd
}

// watchLoop runs one pipeline pass per debounced batch of inbox events. A
// batch only triggers the pass; the pass itself lists the inbox.
func (c *cli) watchLoop(ctx context.Context, cmd *cobra.Command, a *app, health *server.Health) error {
	paths, errs, err := ingest.Watch(ctx, ingest.WatchConfig{
		Inbox:       c.cfg.Paths.Inbox,
		InitialScan: true,
		Debounce:    c.cfg.Processing.WatchDebounce,
		Logger:      c.logger,
	})
	if err != nil {
		return fmt.Errorf("watch inbox: %w", err)
	}
	health.SetServing(true)
	defer health.SetServing(false)
	c.logger.Info("watch.started", "inbox", c.cfg.Paths.Inbox)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			c.logger.Warn("watch.error", "error", err)
		case p, ok := <-paths:
			if !ok {
				return nil
			}
			c.logger.Debug("watch.trigger", "path", p)
			drain(paths)

			sum, err := a.driver.RunOnce(ctx, false)
			if err != nil {
				c.logger.Error("watch.run.failed", "error", err)
				continue
			}
			if sum.Pending > 0 {
				printResults(cmd.OutOrStdout(), sum)
			}
		}
	}
}

// drain discards already queued events of the same batch.
func drain(ch <-chan string) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
