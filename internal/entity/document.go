package entity

import (
	"time"

	"github.com/joseph-ayodele/kg-pipeline/constants"
)

// ParsedDocument is the normalized text of one input file. It is created once
// by the parser and consumed once by the extraction orchestrator.
type ParsedDocument struct {
	ID          string                `json:"id"` // hex sha256 of the file bytes
	SourceName  string                `json:"source_name"`
	SourcePath  string                `json:"source_path"`
	Text        string                `json:"text"`
	MathBlocks  []string              `json:"math_blocks"`
	PageCount   int                   `json:"page_count"`
	UsedPrimary bool                  `json:"used_primary"`
	Method      constants.ParseMethod `json:"method"`
	Duration    time.Duration         `json:"duration"`
}
