package syncengine

import "time"

// Event is the interface implemented by all backup engine events.
type Event interface {
	isEvent()
}

// EventEmitter is the interface for emitting events.
type EventEmitter interface {
	Emit(event Event)
}

// Run events

// RunStarted is emitted once the preconditions hold and the roots exist.
// TotalFiles is 0 unless Options.CountFiles is set.
type RunStarted struct {
	Source     string
	Backup     string
	History    string
	TotalFiles int
}

func (RunStarted) isEvent() {}

// RunComplete is emitted when the walk ends, including after cancellation.
type RunComplete struct {
	Result *Result
}

func (RunComplete) isEvent() {}

// Directory events

// DirectoryMirrored is emitted after a directory's backup and history
// mirrors exist.
type DirectoryMirrored struct {
	RelPath string
}

func (DirectoryMirrored) isEvent() {}

// DirectoryFailed is emitted when a directory's subtree is skipped, either
// because a mirror could not be created or the source could not be listed.
type DirectoryFailed struct {
	RelPath string
	Err     error
}

func (DirectoryFailed) isEvent() {}

// File events

// FileArchived is emitted when the previous backup copy moved into history.
type FileArchived struct {
	RelPath     string
	HistoryPath string
}

func (FileArchived) isEvent() {}

// FileCopied is emitted when the source was copied into the backup tree.
// New is false when the copy superseded an archived version.
type FileCopied struct {
	RelPath string
	Bytes   int64
	New     bool
}

func (FileCopied) isEvent() {}

// FileUnchanged is emitted when the backup copy is already current.
type FileUnchanged struct {
	RelPath string
}

func (FileUnchanged) isEvent() {}

// FileSkipped is emitted for entries that are never backed up
// (symbolic links, devices, pipes, sockets).
type FileSkipped struct {
	RelPath string
	Reason  string
}

func (FileSkipped) isEvent() {}

// RetryScheduled is emitted before waiting to retry a locked or
// permission-denied file.
type RetryScheduled struct {
	RelPath string
	Attempt int
	Delay   time.Duration
	Err     error
}

func (RetryScheduled) isEvent() {}

// FileFailed is emitted when a file is given up on. Err is enriched with
// suggestions (see pkg/errors).
type FileFailed struct {
	RelPath string
	Err     error
}

func (FileFailed) isEvent() {}
