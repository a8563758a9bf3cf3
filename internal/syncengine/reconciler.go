package syncengine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joe/histsync/pkg/fileops"
)

// reconcileOutcome is what one reconciliation attempt did.
type reconcileOutcome struct {
	action   Action
	archived bool
	bytes    int64
}

// reconcile brings entry.BackupPath up to date with entry.SourcePath. When
// the backup copy is stale it is moved to entry.HistoryPath first; the move
// always completes before the copy that supersedes it.
func (e *Engine) reconcile(ctx context.Context, entry FileEntry) (reconcileOutcome, error) {
	var outcome reconcileOutcome

	srcInfo, err := e.FileOps.Stat(entry.SourcePath)
	if err != nil {
		return outcome, &SourceUnreadableError{Path: entry.SourcePath, Err: err}
	}

	dstInfo, err := e.FileOps.Stat(entry.BackupPath)
	backupExists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return outcome, fmt.Errorf("cannot inspect backup copy: %w", err)
	}

	if backupExists {
		if !e.isNewer(srcInfo.ModTime(), dstInfo.ModTime()) {
			outcome.action = ActionUnchanged
			return outcome, nil
		}

		if err := e.FileOps.MoveFile(entry.BackupPath, entry.HistoryPath); err != nil {
			return outcome, err
		}

		outcome.archived = true
		e.Logger.Info("Moved to history", "path", entry.HistoryPath)
		e.emit(FileArchived{RelPath: entry.RelPath, HistoryPath: entry.HistoryPath})
	}

	stats, err := e.FileOps.CopyFileWithStats(entry.SourcePath, entry.BackupPath, nil, ctx.Done())
	if errors.Is(err, fileops.ErrCopyCancelled) {
		return outcome, fmt.Errorf("%w: %w", ErrRunCancelled, ctx.Err())
	}
	if err != nil {
		return outcome, err
	}

	outcome.action = ActionCopied
	if outcome.archived {
		outcome.action = ActionUpdated
	}
	outcome.bytes = stats.BytesCopied

	e.Logger.Info("Copied to backup", "path", entry.BackupPath, "bytes", stats.BytesCopied)

	return outcome, nil
}

// isNewer is the staleness test: the source must beat the backup copy by
// more than the configured tolerance.
func (e *Engine) isNewer(src, dst time.Time) bool {
	return src.Sub(dst) > e.ModTimeTolerance
}
