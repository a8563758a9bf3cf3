package shared

import (
	"fmt"
	"strings"

	"github.com/joe/histsync/internal/syncengine"
	"github.com/joe/histsync/pkg/errors"
)

// ErrorLimitComplete is the default number of errors listed in the summary.
const ErrorLimitComplete = 10

// ErrorListConfig holds configuration for rendering error lists
type ErrorListConfig struct {
	// Errors is the list of file errors to display
	Errors []syncengine.FileError

	// Limit caps the rendered entries; the rest are counted in one line.
	Limit int

	// MaxWidth is the maximum width for path and error message display
	MaxWidth int

	// ShowSuggestions adds the actionable hints under each error.
	ShowSuggestions bool
}

// RenderErrorList renders failed files with their error and, optionally,
// suggestions. Errors recorded by the engine are already enriched.
func RenderErrorList(config ErrorListConfig) string {
	if len(config.Errors) == 0 {
		return ""
	}

	var builder strings.Builder

	limit := config.Limit
	if limit <= 0 {
		limit = ErrorLimitComplete
	}

	for i, fileErr := range config.Errors {
		if i >= limit {
			fmt.Fprintf(&builder, "  ... and %d more error(s)\n", len(config.Errors)-limit)
			break
		}

		displayPath := fileErr.RelPath
		if config.MaxWidth > 0 {
			displayPath = TruncatePath(displayPath, config.MaxWidth)
		}

		fmt.Fprintf(&builder, "  %s %s\n", ErrorSymbol(), FileItemErrorStyle().Render(displayPath))

		errMsg := fileErr.Err.Error()
		if config.MaxWidth > ProgressEllipsisLength && len(errMsg) > config.MaxWidth {
			errMsg = errMsg[:config.MaxWidth-ProgressEllipsisLength] + "..."
		}

		fmt.Fprintf(&builder, "    %s\n", errMsg)

		if !config.ShowSuggestions {
			continue
		}

		if suggestions := errors.FormatSuggestions(fileErr.Err); suggestions != "" {
			fmt.Fprintf(&builder, "    %s\n", strings.ReplaceAll(suggestions, "\n", "\n    "))
		}
	}

	return builder.String()
}
