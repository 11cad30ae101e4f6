package mathpix

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/kg-pipeline/internal/common"
)

// Job states reported by GET /pdf/{id}.
const (
	StatusCompleted = "completed"
	StatusError     = "error"
)

// JobStatus is the decoded body of a status poll.
type JobStatus struct {
	Status      string          `json:"status"`
	PercentDone float64         `json:"percent_done"`
	RawError    json.RawMessage `json:"error,omitempty"`
}

// ErrorDetail renders the service error field whether it is a string or an object.
func (s JobStatus) ErrorDetail() string {
	if len(s.RawError) == 0 {
		return "unknown error"
	}
	var msg string
	if err := json.Unmarshal(s.RawError, &msg); err == nil {
		return msg
	}
	return string(s.RawError)
}

type submitRequest struct {
	Src                   string          `json:"src"`
	ConversionFormats     map[string]bool `json:"conversion_formats"`
	MathInlineDelimiters  []string        `json:"math_inline_delimiters"`
	MathDisplayDelimiters []string        `json:"math_display_delimiters"`
	RmSpaces              bool            `json:"rm_spaces"`
	EnableTablesFallback  bool            `json:"enable_tables_fallback"`
}

// Convert renders a PDF to Markdown with `$`/`$$` math delimiters:
// submit, poll until done, then fetch. A cached artifact for the same bytes
// short-circuits the remote round trip.
func (c *Client) Convert(ctx context.Context, pdf []byte) (string, error) {
	rid := uuid.New().String()
	start := time.Now()
	sum := sha256.Sum256(pdf)
	key := hex.EncodeToString(sum[:])

	if c.cache != nil {
		if a, ok := c.cache.Get(key); ok {
			c.logger.Info("mathpix.cache.hit", "req_id", rid, "key", key, "job_id", a.JobID)
			return a.Markdown, nil
		}
	}

	c.logger.Info("mathpix.convert.start", "req_id", rid, "bytes", len(pdf))

	jobID, err := c.Submit(ctx, pdf)
	if err != nil {
		c.logger.Error("mathpix.submit.failed", "req_id", rid, "error", err)
		return "", err
	}

	md, err := c.waitForMarkdown(ctx, jobID)
	if err != nil {
		c.logger.Error("mathpix.convert.failed",
			"req_id", rid, "job_id", jobID, "error", err,
			"timeout", errors.Is(err, common.ErrServiceTimeout),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	if c.cache != nil {
		if err := c.cache.Put(key, Artifact{JobID: jobID, Markdown: md, CreatedAt: time.Now().UTC()}); err != nil {
			c.logger.Warn("mathpix.cache.put_failed", "req_id", rid, "error", err)
		}
	}

	c.logger.Info("mathpix.convert.ok",
		"req_id", rid,
		"job_id", jobID,
		"chars", len(md),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return md, nil
}

// Submit uploads the PDF inline as a base64 data URL and returns the job id.
func (c *Client) Submit(ctx context.Context, pdf []byte) (string, error) {
	body := submitRequest{
		Src:                   "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(pdf),
		ConversionFormats:     map[string]bool{"md": true},
		MathInlineDelimiters:  []string{"$", "$"},
		MathDisplayDelimiters: []string{"$$", "$$"},
		RmSpaces:              true,
		EnableTablesFallback:  true,
	}
	raw, err := c.do(ctx, http.MethodPost, c.endpoint("/pdf"), body)
	if err != nil {
		return "", err
	}

	var out struct {
		PdfID string `json:"pdf_id"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", common.Tag(common.ErrServiceError, fmt.Errorf("decode submit response: %w", err))
	}
	if out.PdfID == "" {
		return "", common.Tag(common.ErrServiceError, errors.New("response carried no pdf_id"))
	}
	return out.PdfID, nil
}

// Status fetches the processing state of a job.
func (c *Client) Status(ctx context.Context, jobID string) (JobStatus, error) {
	raw, err := c.do(ctx, http.MethodGet, c.endpoint("/pdf/"+jobID), nil)
	if err != nil {
		return JobStatus{}, err
	}
	var st JobStatus
	if err := json.Unmarshal(raw, &st); err != nil {
		return JobStatus{}, common.Tag(common.ErrServiceError, fmt.Errorf("decode status: %w", err))
	}
	return st, nil
}

// FetchMarkdown downloads the rendered Markdown of a completed job.
func (c *Client) FetchMarkdown(ctx context.Context, jobID string) (string, error) {
	raw, err := c.do(ctx, http.MethodGet, c.endpoint("/pdf/"+jobID+".md"), nil)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}

// do performs one request bounded by the per-attempt timeout. Every failure
// is tagged ErrServiceError, except a per-attempt deadline which is tagged
// ErrServiceTimeout.
func (c *Client) do(ctx context.Context, method, url string, body any) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var rdr io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return nil, common.Tag(common.ErrServiceError, fmt.Errorf("encode json: %w", err))
		}
		rdr = bytes.NewReader(bs)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, url, rdr)
	if err != nil {
		return nil, common.Tag(common.ErrServiceError, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("app_id", c.cfg.AppID)
	req.Header.Set("app_key", c.cfg.AppKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, common.Tag(common.ErrServiceTimeout, fmt.Errorf("%s %s: %w", method, url, err))
		}
		return nil, common.Tag(common.ErrServiceError, fmt.Errorf("%s %s: %w", method, url, err))
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Warn("mathpix.http.response_body_close_error", "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.Tag(common.ErrServiceError, fmt.Errorf("read body: %w", err))
	}

	c.logger.Debug("mathpix.http.response",
		"method", method,
		"url", url,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return nil, common.Tag(common.ErrServiceError,
			fmt.Errorf("%s %s: status %d: %s", method, url, resp.StatusCode, truncate(string(raw), 512)))
	}
	return raw, nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
