package ingest

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joseph-ayodele/kg-pipeline/constants"
)

type failureRecord struct {
	File  string
	Time  time.Time
	RunID string
	Error string
}

func (r failureRecord) String() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", constants.ErrorLogSeparatorWidth))
	b.WriteString("\n")
	fmt.Fprintf(&b, "File: %s\n", r.File)
	fmt.Fprintf(&b, "Time: %s\n", r.Time.Format(time.RFC3339))
	if r.RunID != "" {
		fmt.Fprintf(&b, "Run: %s\n", r.RunID)
	}
	fmt.Fprintf(&b, "Error: %s\n", r.Error)
	return b.String()
}

// appendFailure writes one record to the append-only log, creating it if needed.
func appendFailure(path string, r failureRecord) (err error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open error log: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close error log: %w", cerr)
		}
	}()
	if _, err := f.WriteString(r.String()); err != nil {
		return fmt.Errorf("write error log: %w", err)
	}
	return nil
}
