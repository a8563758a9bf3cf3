package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/histsync/internal/config"
	"github.com/joe/histsync/internal/syncengine"
	"github.com/joe/histsync/internal/tui/shared"
)

// Phase represents the current workflow phase
type Phase int

const (
	PhaseInput Phase = iota
	PhaseRunning
	PhaseSummary
)

// String returns the phase name for timeline rendering
func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseRunning:
		return "backup"
	case PhaseSummary:
		return "done"
	default:
		return "input"
	}
}

// Options are the collaborators the model needs beyond the configuration.
type Options struct {
	// Context parents every run; cancelling it cancels the running backup.
	Context context.Context
	// Settings remembers the folders for the next start. Optional.
	Settings *config.SettingsStore
	// Logger receives the engine's log. Optional.
	Logger *slog.Logger
}

// Model is the whole interactive session. Several backups may be run one
// after another; each returns to the form via the summary.
type Model struct {
	config   *config.Config
	ctx      context.Context
	settings *config.SettingsStore
	logger   *slog.Logger

	phase Phase
	input InputModel
	err   error // form validation or start failure, shown in the form

	// Running state
	task       *syncengine.Task
	bridge     *shared.EventBridge
	spinner    spinner.Model
	progress   progress.Model
	startTime  time.Time
	now        time.Time
	cancelling bool
	totalFiles int
	filesDone  int
	bytes      int64
	retries    int
	failures   int
	activity   []string

	// Summary state
	result *syncengine.Result
	runErr error

	width    int
	height   int
	quitting bool
}

// NewModel creates the model. With every folder given and interactive mode
// off, the backup starts as soon as the program does.
func NewModel(cfg *config.Config, opts Options) *Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = shared.TitleStyle().UnsetMarginBottom()

	return &Model{
		config:   cfg,
		ctx:      ctx,
		settings: opts.Settings,
		logger:   logger,
		phase:    PhaseInput,
		input:    NewInputModel(cfg.SourcePath, cfg.BackupPath, cfg.HistoryPath),
		spinner:  spin,
		progress: shared.NewProgressModel(shared.ProgressBarWidth),
	}
}

// Phase returns the current phase (for testing)
func (m *Model) Phase() Phase {
	return m.phase
}

// Result returns the outcome of the most recent run, if any.
func (m *Model) Result() (*syncengine.Result, error) {
	return m.result, m.runErr
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	if !m.config.InteractiveMode {
		return m.submit()
	}

	return m.input.Init()
}

// submit validates the form and asks for a run.
func (m *Model) submit() tea.Cmd {
	source, backup, history := m.input.Values()

	candidate := *m.config
	candidate.SourcePath = source
	candidate.BackupPath = backup
	candidate.HistoryPath = history

	if err := candidate.ValidatePaths(); err != nil {
		m.err = err
		return nil
	}

	m.err = nil

	return func() tea.Msg {
		return shared.StartBackupMsg{SourcePath: source, BackupPath: backup, HistoryPath: history}
	}
}

// startBackup records the folders, remembers them and launches the engine
// on its own goroutine.
func (m *Model) startBackup(msg shared.StartBackupMsg) tea.Cmd {
	m.config.SourcePath = msg.SourcePath
	m.config.BackupPath = msg.BackupPath
	m.config.HistoryPath = msg.HistoryPath

	if m.settings != nil {
		if err := m.settings.Save(m.config.Settings()); err != nil {
			m.logger.Warn("Could not save settings", "path", m.settings.Path(), "error", err)
		}
	}

	opts := syncengine.OptionsFromConfig(m.config)
	opts.CountFiles = true

	engine, err := syncengine.NewEngine(opts)
	if err != nil {
		m.err = err
		m.phase = PhaseInput
		return nil
	}

	engine.Logger = m.logger

	m.bridge = shared.NewEventBridge()
	engine.SetEventEmitter(m.bridge)

	m.resetRun()
	m.phase = PhaseRunning
	m.startTime = time.Now()
	m.now = m.startTime
	m.task = syncengine.Start(m.ctx, engine)

	return tea.Batch(
		m.spinner.Tick,
		m.bridge.ListenCmd(),
		waitForTask(m.task),
		shared.TickCmd(),
	)
}

func (m *Model) resetRun() {
	m.cancelling = false
	m.totalFiles = 0
	m.filesDone = 0
	m.bytes = 0
	m.retries = 0
	m.failures = 0
	m.activity = nil
	m.result = nil
	m.runErr = nil
}

// waitForTask reports the run's outcome once the engine returns.
func waitForTask(task *syncengine.Task) tea.Cmd {
	return func() tea.Msg {
		result, err := task.Wait()
		return shared.BackupFinishedMsg{Result: result, Err: err}
	}
}

// Cancelled reports whether the last run stopped early.
func (m *Model) Cancelled() bool {
	return errors.Is(m.runErr, syncengine.ErrRunCancelled)
}

// metrics derives the progress display from the counters.
func (m *Model) metrics() syncengine.ProgressMetrics {
	return syncengine.ComputeProgress(m.filesDone, m.totalFiles, m.bytes, m.now.Sub(m.startTime))
}
