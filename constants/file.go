package constants

import "strings"

// AllowedExtensions holds the file extensions picked up from the inbox.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

const (
	// ErrorLogName is the append-only failure log kept inside the error directory.
	ErrorLogName = "logs.txt"

	// MoveTimestampLayout prefixes archived and errored file names (YYYYMMDD_HHMMSS).
	MoveTimestampLayout = "20060102_150405"

	// ErrorLogSeparatorWidth is the number of '=' characters opening each failure record.
	ErrorLogSeparatorWidth = 60
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
