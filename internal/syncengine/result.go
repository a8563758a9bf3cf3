package syncengine

import (
	"fmt"
	"time"
)

// Action is what the reconciler did with one file.
type Action int

const (
	// ActionUnchanged means the backup copy was already current.
	ActionUnchanged Action = iota
	// ActionCopied means the file had no backup copy and was copied.
	ActionCopied
	// ActionUpdated means the old backup copy moved to history and the
	// source was copied over.
	ActionUpdated
)

// String returns the string representation of Action
func (a Action) String() string {
	switch a {
	case ActionUnchanged:
		return "unchanged"
	case ActionCopied:
		return "copied"
	case ActionUpdated:
		return "updated"
	default:
		return "unknown"
	}
}

// FileEntry is the positional triple derived for one source file.
type FileEntry struct {
	RelPath     string
	SourcePath  string
	BackupPath  string
	HistoryPath string
}

// FileError represents an error that occurred while backing up a file
type FileError struct {
	RelPath string
	Err     error
}

// Result summarises one run. It is only safe to read after Run returns or
// from the RunComplete event.
type Result struct {
	FilesCopied    int // new files, no previous backup copy
	FilesUpdated   int // previous copy archived, then copied
	FilesUnchanged int
	FilesSkipped   int // symlinks and special files
	FilesExcluded  int
	FilesFailed    int
	FilesArchived  int // includes archives whose following copy failed
	Retries        int
	BytesCopied    int64

	DirectoriesMirrored int
	DirectoriesFailed   int

	Errors    []FileError
	StartTime time.Time
	Duration  time.Duration
}

// FilesProcessed counts files that reached a final outcome.
func (r *Result) FilesProcessed() int {
	return r.FilesCopied + r.FilesUpdated + r.FilesUnchanged + r.FilesFailed
}

// HasFailures reports whether any file or directory was given up on.
func (r *Result) HasFailures() bool {
	return r.FilesFailed > 0 || r.DirectoriesFailed > 0
}

// Summary is the one-line outcome written to the log and the console.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"%d copied, %d updated, %d unchanged, %d skipped, %d failed",
		r.FilesCopied, r.FilesUpdated, r.FilesUnchanged, r.FilesSkipped+r.FilesExcluded, r.FilesFailed,
	)
}
