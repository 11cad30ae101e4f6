package entity

import "time"

// ExtractionResult is the per-file outcome reported by the pipeline driver.
// Exactly one of Entities and Error is populated; use Succeeded or Failed.
type ExtractionResult struct {
	SourceFile   string        `json:"source_file"`
	Success      bool          `json:"success"`
	Entities     *EntityBundle `json:"entities,omitempty"`
	Error        string        `json:"error_message,omitempty"`
	Elapsed      time.Duration `json:"processing_time"`
	TerminalPath string        `json:"terminal_path,omitempty"` // where the file ended up
}

func Succeeded(sourceFile string, bundle EntityBundle, elapsed time.Duration) ExtractionResult {
	return ExtractionResult{
		SourceFile: sourceFile,
		Success:    true,
		Entities:   &bundle,
		Elapsed:    elapsed,
	}
}

func Failed(sourceFile string, err error, elapsed time.Duration) ExtractionResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return ExtractionResult{
		SourceFile: sourceFile,
		Error:      msg,
		Elapsed:    elapsed,
	}
}
