package shared

import (
	"github.com/joe/histsync/internal/syncengine"
)

// ============================================================================
// Transition Messages
// ============================================================================

// StartBackupMsg is sent by the input form once the folders validate.
type StartBackupMsg struct {
	SourcePath  string
	BackupPath  string
	HistoryPath string
}

// BackupFinishedMsg is sent when the engine returns. Result may be nil when
// the run failed its preconditions.
type BackupFinishedMsg struct {
	Result *syncengine.Result
	Err    error
}

// ErrorMsg is sent when the run could not be started at all.
type ErrorMsg struct {
	Err error
}
