package syncengine

import "time"

// Exported constants.
const (
	// ProgressPercentageScale converts 0-1 range to 0-100 range.
	ProgressPercentageScale = 100.0
)

// ProgressMetrics is a point-in-time view of a running backup for display.
type ProgressMetrics struct {
	// FilesDone counts files reconciled so far, whatever the outcome.
	FilesDone int

	// FilesTotal is the counted total, or 0 when the run was not counted.
	FilesTotal int

	// FilesPercent is FilesDone / FilesTotal on a 0-100 scale; 0 when the
	// total is unknown.
	FilesPercent float64

	// BytesCopied is the number of bytes written into the backup tree.
	BytesCopied int64

	// BytesPerSecond is the average copy rate since the run started.
	BytesPerSecond float64

	// EstimatedTimeLeft extrapolates the per-file rate over the remaining
	// files; 0 when the total is unknown or nothing is done yet.
	EstimatedTimeLeft time.Duration
}

// ComputeProgress derives display metrics from raw counters.
func ComputeProgress(filesDone, filesTotal int, bytesCopied int64, elapsed time.Duration) ProgressMetrics {
	metrics := ProgressMetrics{
		FilesDone:   filesDone,
		FilesTotal:  filesTotal,
		BytesCopied: bytesCopied,
	}

	if elapsed > 0 {
		metrics.BytesPerSecond = float64(bytesCopied) / elapsed.Seconds()
	}

	if filesTotal <= 0 {
		return metrics
	}

	done := min(filesDone, filesTotal)
	metrics.FilesPercent = float64(done) / float64(filesTotal) * ProgressPercentageScale

	if done > 0 && elapsed > 0 {
		perFile := elapsed / time.Duration(done)
		metrics.EstimatedTimeLeft = perFile * time.Duration(filesTotal-done)
	}

	return metrics
}
