package shared

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderTimeline renders the phase progression for the header:
// Input ── Backup ── Done. Phases before the current one are checked, the
// current one is active and later ones pending. A phase key with an
// "_error" suffix (e.g. "backup_error") marks the failure point and the
// phases after it as cancelled. Unknown phases render as input.
func RenderTimeline(currentPhase string) string {
	phase := strings.ToLower(strings.TrimSpace(currentPhase))

	isError := strings.HasSuffix(phase, "_error")
	if isError {
		phase = strings.TrimSuffix(phase, "_error")
	}

	type phaseDefinition struct {
		name string
		key  string
	}

	phases := []phaseDefinition{
		{"Input", "input"},
		{"Backup", "backup"},
		{"Done", "done"},
	}

	currentIdx := 0
	for i, phaseInfo := range phases {
		if phaseInfo.key == phase {
			currentIdx = i
			break
		}
	}

	parts := make([]string, 0, len(phases))

	for phaseIdx, phaseInfo := range phases {
		var symbol string
		var style lipgloss.Style

		switch {
		case isError && phaseIdx == currentIdx:
			symbol = ErrorSymbol()
			style = lipgloss.NewStyle().Foreground(ErrorColor())
		case isError && phaseIdx > currentIdx:
			symbol = CancelledSymbol()
			style = DimStyle()
		case phaseIdx < currentIdx:
			symbol = SuccessSymbol()
			style = lipgloss.NewStyle().Foreground(SuccessColor())
		case phaseIdx == currentIdx && currentIdx == len(phases)-1:
			// "done" is a finished state, not an active one
			symbol = SuccessSymbol()
			style = lipgloss.NewStyle().Foreground(SuccessColor())
		case phaseIdx == currentIdx:
			symbol = ActiveSymbol()
			style = lipgloss.NewStyle().Foreground(PrimaryColor())
		default:
			symbol = PendingSymbol()
			style = DimStyle()
		}

		parts = append(parts, style.Render(symbol+" "+phaseInfo.name))
	}

	return strings.Join(parts, DimStyle().Render(" ── "))
}
