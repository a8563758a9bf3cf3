package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/joe/histsync/internal/syncengine"
	"github.com/joe/histsync/internal/tui/shared"
)

// View implements tea.Model
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var body string

	switch m.phase {
	case PhaseRunning:
		body = m.renderRunningView()
	case PhaseSummary:
		body = m.renderSummaryView()
	default:
		body = m.renderInputView()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		shared.RenderTitle("histsync"),
		m.timeline(),
		"",
		body,
	)
}

func (m *Model) timeline() string {
	phase := m.phase.String()
	if m.phase == PhaseSummary && m.failed() {
		phase = PhaseRunning.String() + "_error"
	}

	return shared.RenderTimeline(phase)
}

// failed reports a run that stopped before walking the tree.
func (m *Model) failed() bool {
	return m.runErr != nil && !m.Cancelled()
}

func (m *Model) renderInputView() string {
	var b strings.Builder

	for i, input := range m.input.inputs {
		fmt.Fprintf(&b, "%s\n%s\n\n", shared.RenderLabel(fieldLabels[i]+" folder"), input.View())
	}

	if m.input.showCompletions && len(m.input.completions) > 1 {
		for i, completion := range m.input.completions {
			style := shared.CompletionStyle()
			if i == m.input.completionIndex {
				style = shared.CompletionSelectedStyle()
			}

			b.WriteString("  " + style.Render(completion) + "\n")
		}

		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(shared.RenderError(m.err.Error()) + "\n\n")
	}

	b.WriteString(shared.RenderDim("tab complete • ↑/↓ move • enter next/start • esc quit"))

	return shared.RenderBox(b.String())
}

func (m *Model) renderRunningView() string {
	var b strings.Builder

	metrics := m.metrics()

	status := "Backing up"
	if m.cancelling {
		status = "Cancelling"
	}

	fmt.Fprintf(&b, "%s %s\n\n", m.spinner.View(), shared.RenderLabel(status))
	fmt.Fprintf(&b, "%s → %s\n", m.config.SourcePath, m.config.BackupPath)
	fmt.Fprintf(&b, "%s\n\n", shared.RenderDim("history: "+m.config.HistoryPath))

	if metrics.FilesTotal > 0 {
		b.WriteString(shared.RenderProgress(m.progress, metrics.FilesPercent/shared.ProgressPercentageScale))
		fmt.Fprintf(&b, " %d/%d files\n", metrics.FilesDone, metrics.FilesTotal)
	} else {
		fmt.Fprintf(&b, "%d files\n", metrics.FilesDone)
	}

	fmt.Fprintf(&b, "%s copied • %s • elapsed %s",
		shared.FormatBytes(metrics.BytesCopied),
		shared.FormatRate(metrics.BytesPerSecond),
		shared.FormatDuration(m.now.Sub(m.startTime)),
	)

	if metrics.EstimatedTimeLeft > 0 {
		fmt.Fprintf(&b, " • ~%s left", shared.FormatDuration(metrics.EstimatedTimeLeft))
	}

	b.WriteString("\n")

	if m.retries > 0 || m.failures > 0 {
		fmt.Fprintf(&b, "%s\n", shared.RenderWarning(fmt.Sprintf("%d retries, %d failed", m.retries, m.failures)))
	}

	if len(m.activity) > 0 {
		b.WriteString("\n" + shared.RenderActivityLog("Recent activity", m.activity, shared.ActivityLogEntries) + "\n")
	}

	b.WriteString("\n" + shared.RenderDim("esc cancel"))

	return shared.RenderBox(b.String())
}

func (m *Model) renderSummaryView() string {
	var b strings.Builder

	switch {
	case m.failed():
		b.WriteString(shared.RenderError(shared.ErrorSymbol()+" Backup did not start") + "\n\n")
		b.WriteString(m.runErr.Error() + "\n")
		b.WriteString(m.renderPreconditionHint())
	case m.Cancelled():
		b.WriteString(shared.RenderWarning(shared.CancelledSymbol()+" Backup cancelled") + "\n\n")
	case m.result != nil && m.result.HasFailures():
		b.WriteString(shared.RenderWarning(shared.SuccessSymbol()+" Backup finished with errors") + "\n\n")
	default:
		b.WriteString(shared.RenderSuccess(shared.SuccessSymbol()+" Backup complete") + "\n\n")
	}

	if m.result != nil {
		b.WriteString(renderResult(m.result))

		if errorList := shared.RenderErrorList(shared.ErrorListConfig{
			Errors:          m.result.Errors,
			Limit:           shared.ErrorLimitComplete,
			MaxWidth:        m.progress.Width,
			ShowSuggestions: true,
		}); errorList != "" {
			b.WriteString("\n" + shared.RenderLabel("Failed files") + "\n" + errorList)
		}
	}

	b.WriteString("\n" + shared.RenderDim("enter new backup • q quit"))

	return shared.RenderBox(b.String())
}

func (m *Model) renderPreconditionHint() string {
	switch {
	case errors.Is(m.runErr, syncengine.ErrSourceMissing), errors.Is(m.runErr, syncengine.ErrSourceNotDirectory):
		return shared.RenderDim("Check the source folder and try again.") + "\n"
	case errors.Is(m.runErr, syncengine.ErrTargetInsideSource):
		return shared.RenderDim("Choose backup and history folders outside the source.") + "\n"
	default:
		return ""
	}
}

func renderResult(result *syncengine.Result) string {
	rows := [][2]string{
		{"Copied", fmt.Sprint(result.FilesCopied)},
		{"Updated", fmt.Sprint(result.FilesUpdated)},
		{"Archived", fmt.Sprint(result.FilesArchived)},
		{"Unchanged", fmt.Sprint(result.FilesUnchanged)},
		{"Skipped", fmt.Sprint(result.FilesSkipped + result.FilesExcluded)},
		{"Failed", fmt.Sprint(result.FilesFailed)},
		{"Folders", fmt.Sprintf("%d mirrored, %d failed", result.DirectoriesMirrored, result.DirectoriesFailed)},
		{"Data", shared.FormatBytes(result.BytesCopied)},
		{"Time", shared.FormatDuration(result.Duration)},
	}

	var b strings.Builder

	for _, row := range rows {
		fmt.Fprintf(&b, "%s %s\n", shared.LabelStyle().Width(11).Render(row[0]+":"), row[1]) //nolint:mnd // label column
	}

	return b.String()
}
