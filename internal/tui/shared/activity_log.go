package shared

import (
	"fmt"
	"strings"

	"github.com/joe/histsync/internal/syncengine"
)

// RenderActivityLog renders entries oldest first under an optional title.
// If maxEntries > 0, only the most recent maxEntries are shown.
func RenderActivityLog(title string, entries []string, maxEntries int) string {
	var builder strings.Builder

	trimmedTitle := strings.TrimSpace(title)
	if trimmedTitle != "" {
		builder.WriteString(RenderLabel(trimmedTitle))
		builder.WriteString("\n")

		if len(entries) > 0 {
			builder.WriteString("\n")
		}
	}

	if len(entries) == 0 {
		return builder.String()
	}

	startIdx := 0
	if maxEntries > 0 && maxEntries < len(entries) {
		startIdx = len(entries) - maxEntries
	}

	for i := startIdx; i < len(entries); i++ {
		builder.WriteString("  ")
		builder.WriteString(entries[i])

		if i < len(entries)-1 {
			builder.WriteString("\n")
		}
	}

	return builder.String()
}

// DescribeEvent turns an engine event into an activity log line. Events not
// worth a line (unchanged files, directory bookkeeping) return false.
func DescribeEvent(event syncengine.Event) (string, bool) {
	switch e := event.(type) {
	case syncengine.FileCopied:
		verb := "updated"
		if e.New {
			verb = "copied"
		}
		return fmt.Sprintf("%s %s %s (%s)", SuccessSymbol(), verb, e.RelPath, FormatBytes(e.Bytes)), true
	case syncengine.FileArchived:
		return fmt.Sprintf("%s archived %s", SuccessSymbol(), e.RelPath), true
	case syncengine.FileSkipped:
		return RenderDim(fmt.Sprintf("%s skipped %s (%s)", PendingSymbol(), e.RelPath, e.Reason)), true
	case syncengine.RetryScheduled:
		return RenderWarning(fmt.Sprintf("%s retry %d for %s in %s", RetrySymbol(), e.Attempt, e.RelPath, e.Delay)), true
	case syncengine.FileFailed:
		return RenderError(fmt.Sprintf("%s failed %s", ErrorSymbol(), e.RelPath)), true
	case syncengine.DirectoryFailed:
		return RenderError(fmt.Sprintf("%s skipped folder %s", ErrorSymbol(), e.RelPath)), true
	default:
		return "", false
	}
}
