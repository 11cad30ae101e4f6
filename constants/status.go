package constants

// FileState is the lifecycle state of an input document.
type FileState string

// Only pending, archived and errored are observable on disk; processing lives
// in memory for the duration of a run.
const (
	FileStatePending    FileState = "pending"    // sitting in the inbox
	FileStateProcessing FileState = "processing" // held by the driver
	FileStateArchived   FileState = "archived"   // terminal success
	FileStateErrored    FileState = "errored"    // terminal failure
)

// ParseMethod records which path produced a document's text.
type ParseMethod string

const (
	ParseMethodMathpix   ParseMethod = "mathpix"
	ParseMethodPDFText   ParseMethod = "pdf-text"  // pdfcpu content streams
	ParseMethodPdftotext ParseMethod = "pdftotext" // external poppler binary
)
