package watcher

import (
	"time"

	"github.com/bft-labs/labship/internal/domain"
)

// Outcome tags the result of one transfer attempt.
type Outcome int

const (
	// OutcomeSent: the server acknowledged the content.
	OutcomeSent Outcome = iota
	// OutcomeRetry: a connection, protocol or local I/O failure. The file
	// is untouched and tried again next cycle.
	OutcomeRetry
	// OutcomeRejected: the server answered ERROR to the filename.
	OutcomeRejected
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeRetry:
		return "retry"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// FileResult is the result of one file in a cycle.
type FileResult struct {
	File    domain.SourceFile
	Outcome Outcome

	// Err is the transfer error for Retry and Rejected, or the archive
	// error for a Sent file that could not be archived.
	Err error

	Bytes int64

	// Archive is the relocation into Archives/ or Rejected/, if attempted.
	Archive *domain.ArchiveRecord

	// Rejections is the ledger count after a Rejected outcome.
	Rejections int

	// DeadLettered is set when the file was moved to Rejected/.
	DeadLettered bool
}

// Archived reports whether the file left its source directory.
func (r FileResult) Archived() bool {
	return r.Archive != nil && r.Archive.OK()
}

// CycleReport summarizes one pass over every source directory.
type CycleReport struct {
	Started  time.Time
	Finished time.Time
	Files    []FileResult

	// ScanErrors holds directories that could not be listed.
	ScanErrors map[string]error
}

// Count returns the number of files with outcome o.
func (r CycleReport) Count(o Outcome) int {
	n := 0
	for _, f := range r.Files {
		if f.Outcome == o {
			n++
		}
	}
	return n
}

// Result returns the result for the file at path.
func (r CycleReport) Result(path string) (FileResult, bool) {
	for _, f := range r.Files {
		if f.File.Path == path {
			return f, true
		}
	}
	return FileResult{}, false
}
