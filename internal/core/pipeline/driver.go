package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joseph-ayodele/kg-pipeline/constants"
	"github.com/joseph-ayodele/kg-pipeline/internal/common"
	"github.com/joseph-ayodele/kg-pipeline/internal/core/async"
	"github.com/joseph-ayodele/kg-pipeline/internal/entity"
)

// Lifecycle is the inbox/archive/error state machine.
type Lifecycle interface {
	EnsureDirectories() error
	ListPending() ([]string, error)
	CommitSuccess(path string) (string, error)
	CommitFailure(ctx context.Context, path, reason string) (string, error)
}

type Config struct {
	MaxConcurrentFiles int
	ProcessTimeout     time.Duration
	// CredentialsPresent gates processing; without them no file is touched.
	CredentialsPresent bool
}

// Summary aggregates one run. Results are in discovery order.
type Summary struct {
	RunID     string
	Pending   int
	Succeeded int
	Failed    int
	DryRun    bool
	Results   []entity.ExtractionResult
}

// Counts returns (successCount, errorCount).
func (s Summary) Counts() (int, int) { return s.Succeeded, s.Failed }

type Driver struct {
	cfg       Config
	lifecycle Lifecycle
	proc      *Processor
	logger    *slog.Logger
}

func NewDriver(cfg Config, lifecycle Lifecycle, proc *Processor, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxConcurrentFiles <= 0 {
		cfg.MaxConcurrentFiles = 3
	}
	return &Driver{cfg: cfg, lifecycle: lifecycle, proc: proc, logger: logger}
}

// RunOnce processes every pending file once. A per-file failure never aborts
// the run; the returned error covers only inbox setup and listing.
func (d *Driver) RunOnce(ctx context.Context, dryRun bool) (Summary, error) {
	sum := Summary{RunID: ulid.Make().String(), DryRun: dryRun}
	ctx = common.WithRunID(ctx, sum.RunID)
	start := time.Now()

	if err := d.lifecycle.EnsureDirectories(); err != nil {
		return sum, fmt.Errorf("prepare directories: %w", err)
	}
	pending, err := d.lifecycle.ListPending()
	if err != nil {
		return sum, fmt.Errorf("list pending: %w", err)
	}
	sum.Pending = len(pending)
	if len(pending) == 0 {
		d.logger.Info("pipeline.run.empty", "run_id", sum.RunID)
		return sum, nil
	}

	if dryRun {
		sum.Succeeded = len(pending)
		d.logger.Info("pipeline.run.dry", "run_id", sum.RunID, "pending", len(pending))
		return sum, nil
	}

	if !d.cfg.CredentialsPresent {
		sum.Failed = len(pending)
		d.logger.Error("pipeline.config.missing_credentials",
			"run_id", sum.RunID,
			"pending", len(pending),
			"hint", "set OPENAI_API_KEY; no file was moved",
		)
		return sum, nil
	}

	results := make([]entity.ExtractionResult, len(pending))
	var mu sync.Mutex

	workers := min(d.cfg.MaxConcurrentFiles, len(pending))
	q := async.NewProcessorQueue(ctx, async.HandlerFunc(func(jobCtx context.Context, job async.Job) {
		// an interrupted run leaves the remaining files pending
		if ctx.Err() != nil {
			return
		}
		res, ok := d.processAndCommit(ctx, jobCtx, job.Path)
		if !ok {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		results[job.Seq] = res
		if res.Success {
			sum.Succeeded++
		} else {
			sum.Failed++
		}
	}), d.logger, async.WithWorkers(workers), async.WithQueueSize(len(pending)), async.WithProcessTimeout(d.cfg.ProcessTimeout))

	for i, p := range pending {
		if err := q.Enqueue(ctx, async.Job{Path: p, Seq: i}); err != nil {
			d.logger.Error("pipeline.enqueue.failed", "run_id", sum.RunID, "path", p, "error", err)
			break
		}
	}
	q.Shutdown(context.Background())

	for _, r := range results {
		// files skipped or never enqueued keep a zero result and stay pending
		if r.SourceFile != "" {
			sum.Results = append(sum.Results, r)
		}
	}

	d.logger.Info("pipeline.run.done",
		"run_id", sum.RunID,
		"succeeded", sum.Succeeded,
		"failed", sum.Failed,
		"workers", workers,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return sum, nil
}

// processAndCommit moves the file only after its own outcome is known. It
// reports false, leaving the file pending, when the run was cancelled.
func (d *Driver) processAndCommit(runCtx, ctx context.Context, path string) (entity.ExtractionResult, bool) {
	d.logger.Debug("pipeline.file.start", "run_id", common.RunIDFromContext(ctx), "path", path, "state", constants.FileStateProcessing)
	res := d.proc.ProcessFile(ctx, path)
	if runCtx.Err() != nil {
		d.logger.Warn("pipeline.file.interrupted", "run_id", common.RunIDFromContext(ctx), "file", res.SourceFile)
		return res, false
	}

	if res.Success {
		dest, err := d.lifecycle.CommitSuccess(path)
		if err == nil {
			res.TerminalPath = dest
			d.logger.Info("pipeline.file.succeeded", "run_id", common.RunIDFromContext(ctx), "file", res.SourceFile)
			return res, true
		}
		res = entity.Failed(res.SourceFile, fmt.Errorf("archive: %w", err), res.Elapsed)
	}

	dest, err := d.lifecycle.CommitFailure(ctx, path, res.Error)
	if err != nil {
		d.logger.Error("pipeline.file.commit_failed", "run_id", common.RunIDFromContext(ctx), "file", res.SourceFile, "error", err)
	}
	res.TerminalPath = dest
	d.logger.Warn("pipeline.file.failed", "run_id", common.RunIDFromContext(ctx), "file", res.SourceFile, "error", res.Error)
	return res, true
}
