package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/histsync/internal/syncengine"
	"github.com/joe/histsync/internal/tui/shared"
)

// activityLimit bounds the retained activity lines.
const activityLimit = 200

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		width := min(max(msg.Width-shared.WidthMargin, shared.MinInputWidth), shared.MaxProgressBarWidth)
		m.input.SetWidth(width)
		m.progress.Width = width

		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case shared.StartBackupMsg:
		return m, m.startBackup(msg)

	case shared.EngineEventMsg:
		m.handleEvent(msg.Event)
		return m, m.bridge.ListenCmd()

	case shared.BackupFinishedMsg:
		m.finish(msg)
		return m, nil

	case shared.TickMsg:
		if m.phase != PhaseRunning {
			return m, nil
		}

		m.now = time.Time(msg)

		return m, shared.TickCmd()

	case spinner.TickMsg:
		if m.phase != PhaseRunning {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	if m.phase == PhaseInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch m.phase {
	case PhaseRunning:
		if key == shared.KeyCtrlC || key == "esc" || key == "q" {
			m.cancel()
		}

		return m, nil

	case PhaseSummary:
		switch key {
		case shared.KeyCtrlC, "q", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			m.phase = PhaseInput
			m.input = NewInputModel(m.config.SourcePath, m.config.BackupPath, m.config.HistoryPath)

			return m, m.input.Init()
		}

		return m, nil

	default:
		if key == shared.KeyCtrlC || key == "esc" {
			m.quitting = true
			return m, tea.Quit
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)

		if m.input.Submitted {
			return m, m.submit()
		}

		return m, cmd
	}
}

// cancel asks the running task to stop; the summary follows once it does.
func (m *Model) cancel() {
	if m.task == nil || m.cancelling {
		return
	}

	m.cancelling = true
	m.task.Cancel()
}

// handleEvent folds one engine event into the running view.
func (m *Model) handleEvent(event syncengine.Event) {
	switch e := event.(type) {
	case syncengine.RunStarted:
		m.totalFiles = e.TotalFiles
	case syncengine.FileCopied:
		m.filesDone++
		m.bytes += e.Bytes
	case syncengine.FileUnchanged:
		m.filesDone++
	case syncengine.FileFailed:
		m.filesDone++
		m.failures++
	case syncengine.RetryScheduled:
		m.retries++
	case syncengine.RunComplete:
		m.result = e.Result
	}

	if line, ok := shared.DescribeEvent(event); ok {
		m.activity = append(m.activity, line)
		if len(m.activity) > activityLimit {
			m.activity = m.activity[len(m.activity)-activityLimit:]
		}
	}
}

func (m *Model) finish(msg shared.BackupFinishedMsg) {
	m.phase = PhaseSummary
	m.result = msg.Result
	m.runErr = msg.Err
	m.task = nil
	m.cancelling = false

	if m.bridge != nil {
		m.bridge.Close()
	}
}
