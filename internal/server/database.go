package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/kg-pipeline/internal/repository"
)

// ConnectGraph opens the graph store and applies the schema.
func ConnectGraph(ctx context.Context, cfg repository.Config, logger *slog.Logger) (*repository.DB, error) {
	logger.Info("connecting to graph store", "postgres", repository.IsPostgres(cfg.DSN))
	db, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to graph store", "error", err)
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		logger.Error("failed to migrate graph store", "error", err)
		return nil, err
	}
	logger.Info("successfully connected to graph store", "dialect", db.Dialect())
	return db, nil
}

// PingGraph pings the graph store to ensure it's responsive
func PingGraph(ctx context.Context, db *repository.DB, logger *slog.Logger, timeout time.Duration) error {
	logger.Debug("pinging graph store")
	if err := db.HealthCheck(ctx, timeout); err != nil {
		logger.Error("graph store ping failed", "error", err)
		return err
	}
	logger.Debug("graph store ping successful")
	return nil
}
