// Package tui provides the interactive terminal front end: a form for the
// three folders, a live view of the running backup and a summary.
package tui

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/histsync/internal/tui/shared"
)

// Input field indexes.
const (
	fieldSource = iota
	fieldBackup
	fieldHistory
	fieldCount
)

const inputCharLimit = 1024

//nolint:gochecknoglobals // Field labels are fixed
var fieldLabels = [fieldCount]string{"Source", "Backup", "History"}

// InputModel is the folder form. Tab completes paths, Enter moves to the
// next field and, on the last one, submits.
type InputModel struct {
	inputs          [fieldCount]textinput.Model
	focusIndex      int
	Submitted       bool
	completions     []string
	completionIndex int
	showCompletions bool
}

// NewInputModel creates the form pre-filled with the given folders.
func NewInputModel(source, backup, history string) InputModel {
	placeholders := [fieldCount]string{"/path/to/source", "/path/to/backup", "/path/to/history"}
	values := [fieldCount]string{source, backup, history}

	var model InputModel

	for i := range model.inputs {
		input := textinput.New()
		input.Placeholder = placeholders[i]
		input.CharLimit = inputCharLimit
		input.Width = shared.ProgressBarWidth
		input.Prompt = "  "
		input.SetValue(values[i])
		input.CursorEnd()
		model.inputs[i] = input
	}

	model.focus(firstEmpty(values))

	return model
}

func firstEmpty(values [fieldCount]string) int {
	for i, value := range values {
		if value == "" {
			return i
		}
	}

	return fieldSource
}

// Init initializes the input model
func (m InputModel) Init() tea.Cmd {
	return textinput.Blink
}

// Values returns the trimmed source, backup and history folders.
func (m InputModel) Values() (string, string, string) {
	return m.value(fieldSource), m.value(fieldBackup), m.value(fieldHistory)
}

func (m InputModel) value(field int) string {
	return strings.TrimSpace(m.inputs[field].Value())
}

// SetWidth resizes every field.
func (m *InputModel) SetWidth(width int) {
	for i := range m.inputs {
		m.inputs[i].Width = width
	}
}

func (m *InputModel) focus(index int) {
	for i := range m.inputs {
		if i == index {
			m.inputs[i].Focus()
			m.inputs[i].Prompt = shared.PromptArrow
		} else {
			m.inputs[i].Blur()
			m.inputs[i].Prompt = "  "
		}
	}

	m.focusIndex = index
	m.showCompletions = false
}

// Update handles keys for the form. Submitted is set once Enter is pressed
// on the last field with every field filled.
func (m InputModel) Update(msg tea.Msg) (InputModel, tea.Cmd) {
	m.Submitted = false

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "down", "ctrl+n":
			m.focus(min(m.focusIndex+1, fieldCount-1))
			return m, nil

		case "up", "ctrl+p":
			m.focus(max(m.focusIndex-1, 0))
			return m, nil

		case "tab":
			return m.handleTabCompletion(), nil

		case "shift+tab":
			return m.handleShiftTabCompletion(), nil

		case "enter":
			m.showCompletions = false
			if m.value(m.focusIndex) == "" {
				return m, nil
			}

			if m.focusIndex < fieldCount-1 {
				m.focus(m.focusIndex + 1)
				return m, nil
			}

			for i := range m.inputs {
				if m.value(i) == "" {
					m.focus(i)
					return m, nil
				}
			}

			m.Submitted = true

			return m, nil

		default:
			m.showCompletions = false
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)

	return m, cmd
}

// handleTabCompletion completes the focused path, cycling forward through
// the candidates on repeated presses.
func (m InputModel) handleTabCompletion() InputModel {
	if !m.showCompletions {
		m.completions = getPathCompletions(m.inputs[m.focusIndex].Value())
		m.completionIndex = 0
		m.showCompletions = true
	} else if len(m.completions) > 0 {
		m.completionIndex = (m.completionIndex + 1) % len(m.completions)
	}

	if len(m.completions) == 0 {
		m.showCompletions = false
		return m
	}

	m.inputs[m.focusIndex].SetValue(m.completions[m.completionIndex])
	m.inputs[m.focusIndex].CursorEnd()

	if len(m.completions) == 1 {
		m.showCompletions = false
	}

	return m
}

// handleShiftTabCompletion cycles backward through the candidates.
func (m InputModel) handleShiftTabCompletion() InputModel {
	if !m.showCompletions || len(m.completions) == 0 {
		return m
	}

	m.completionIndex--
	if m.completionIndex < 0 {
		m.completionIndex = len(m.completions) - 1
	}

	m.inputs[m.focusIndex].SetValue(m.completions[m.completionIndex])
	m.inputs[m.focusIndex].CursorEnd()

	return m
}

// getPathCompletions returns the directories matching input. Only
// directories are offered since every field names a folder.
func getPathCompletions(input string) []string {
	if input == "" {
		input = "."
	}

	if strings.HasPrefix(input, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			input = filepath.Join(home, input[1:])
		}
	}

	dir := filepath.Dir(input)
	prefix := filepath.Base(input)

	if strings.HasSuffix(input, string(filepath.Separator)) {
		dir = input
		prefix = ""
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var completions []string

	for _, entry := range entries {
		name := entry.Name()

		// Hidden entries only when asked for
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(prefix, ".") {
			continue
		}

		if !entry.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}

		completions = append(completions, filepath.Join(dir, name)+string(filepath.Separator))
	}

	sort.Strings(completions)

	return completions
}
