package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/histsync/internal/config"
	"github.com/joe/histsync/internal/syncengine"
)

// Run shows the interactive UI until the user quits and returns the outcome
// of the last backup run, if any. altScreen takes over the whole terminal.
func Run(cfg *config.Config, opts Options, altScreen bool) (*syncengine.Result, error) {
	model := NewModel(cfg, opts)

	programOpts := []tea.ProgramOption{}
	if altScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	if opts.Context != nil {
		programOpts = append(programOpts, tea.WithContext(opts.Context))
	}

	final, err := tea.NewProgram(model, programOpts...).Run()
	if err != nil {
		return nil, fmt.Errorf("interactive session failed: %w", err)
	}

	finalModel, ok := final.(*Model)
	if !ok {
		return nil, fmt.Errorf("unexpected final model %T", final)
	}

	return finalModel.Result()
}
