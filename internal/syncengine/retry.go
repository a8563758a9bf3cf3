package syncengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/joe/histsync/pkg/errors"
)

// Exported constants.
const (
	DefaultMaxRetries = 1
	DefaultRetryDelay = 5 * time.Second
)

// RetryPolicy bounds how often a locked or permission-denied file is tried
// again. MaxRetries counts retries, so a file is attempted MaxRetries+1 times.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// DefaultRetryPolicy returns one retry after five seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: DefaultMaxRetries, Delay: DefaultRetryDelay}
}

// reconcileWithRetry runs reconcile, retrying only permission and lock
// failures. It returns the number of retries used. Each retry re-runs the
// whole reconciliation, so an archive done by a failed attempt is seen as an
// absent backup copy and the retry only copies.
func (e *Engine) reconcileWithRetry(ctx context.Context, entry FileEntry) (reconcileOutcome, int, error) {
	archived := false

	for attempt := 0; ; attempt++ {
		outcome, err := e.reconcile(ctx, entry)
		archived = archived || outcome.archived

		if err == nil {
			if archived && outcome.action == ActionCopied {
				outcome.action = ActionUpdated
			}
			outcome.archived = archived
			return outcome, attempt, nil
		}

		outcome.archived = archived

		if errors.Is(err, ErrRunCancelled) {
			return outcome, attempt, err
		}

		if !pkgerrors.IsRetryable(err) || attempt >= e.Retry.MaxRetries {
			if attempt > 0 {
				e.Logger.Error(fmt.Sprintf("Failed after %d attempts", attempt+1), "path", entry.SourcePath, "error", err)
			}
			return outcome, attempt, err
		}

		e.Logger.Warn(fmt.Sprintf("Retrying in %s", e.Retry.Delay),
			"path", entry.SourcePath,
			"attempt", attempt+1,
			"error", err,
		)
		e.emit(RetryScheduled{
			RelPath: entry.RelPath,
			Attempt: attempt + 1,
			Delay:   e.Retry.Delay,
			Err:     err,
		})

		if sleepErr := e.TimeProvider.Sleep(ctx, e.Retry.Delay); sleepErr != nil {
			return outcome, attempt + 1, fmt.Errorf("%w: %w", ErrRunCancelled, sleepErr)
		}
	}
}

// processFile reconciles one entry and records the outcome. Failures are
// logged and recorded; they never stop the walk.
func (e *Engine) processFile(ctx context.Context, entry FileEntry, result *Result) {
	outcome, retries, err := e.reconcileWithRetry(ctx, entry)
	result.Retries += retries

	if outcome.archived {
		result.FilesArchived++
	}

	if errors.Is(err, ErrRunCancelled) {
		return
	}

	if err != nil {
		enriched := e.enricher.Enrich(err, entry.SourcePath)
		e.Logger.Error("Failed to back up file",
			"path", entry.SourcePath,
			"category", pkgerrors.Classify(err),
			"error", err,
		)
		result.FilesFailed++
		result.Errors = append(result.Errors, FileError{RelPath: entry.RelPath, Err: enriched})
		e.emit(FileFailed{RelPath: entry.RelPath, Err: enriched})
		return
	}

	switch outcome.action {
	case ActionUnchanged:
		result.FilesUnchanged++
		e.Logger.Debug("Unchanged", "path", entry.RelPath)
		e.emit(FileUnchanged{RelPath: entry.RelPath})
		return
	case ActionCopied:
		result.FilesCopied++
	case ActionUpdated:
		result.FilesUpdated++
	}

	result.BytesCopied += outcome.bytes
	e.emit(FileCopied{RelPath: entry.RelPath, Bytes: outcome.bytes, New: outcome.action == ActionCopied})
}
