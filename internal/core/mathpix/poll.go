package mathpix

import (
	"context"
	"fmt"

	"github.com/joseph-ayodele/kg-pipeline/internal/common"
)

// waitForMarkdown polls the job at most MaxPollAttempts times. A terminal
// "error" state fails immediately with ErrServiceError; running out of
// attempts fails with ErrServiceTimeout.
func (c *Client) waitForMarkdown(ctx context.Context, jobID string) (string, error) {
	for attempt := 1; attempt <= c.cfg.MaxPollAttempts; attempt++ {
		st, err := c.Status(ctx, jobID)
		if err != nil {
			return "", err
		}

		switch st.Status {
		case StatusCompleted:
			c.logger.Debug("mathpix.poll.completed", "job_id", jobID, "attempt", attempt)
			return c.FetchMarkdown(ctx, jobID)
		case StatusError:
			return "", common.Tag(common.ErrServiceError, fmt.Errorf("job %s failed: %s", jobID, st.ErrorDetail()))
		}

		c.logger.Debug("mathpix.poll.status",
			"job_id", jobID,
			"attempt", attempt,
			"status", st.Status,
			"percent_done", st.PercentDone,
		)
		if err := c.sleep(ctx, c.cfg.PollInterval); err != nil {
			return "", common.Tag(common.ErrServiceError, fmt.Errorf("poll interrupted: %w", err))
		}
	}
	return "", common.Tag(common.ErrServiceTimeout,
		fmt.Errorf("job %s not completed after %d polls", jobID, c.cfg.MaxPollAttempts))
}
