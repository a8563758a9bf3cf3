// Package syncengine implements the incremental backup: it mirrors a source
// tree into a backup tree and moves each superseded backup copy into a
// parallel history tree before replacing it.
package syncengine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joe/histsync/internal/config"
	pkgerrors "github.com/joe/histsync/pkg/errors"
	"github.com/joe/histsync/pkg/fileops"
	"github.com/joe/histsync/pkg/formatters"
)

// HistorySuffix is appended to a file name to form its history entry.
const HistorySuffix = "_alt"

// Exported variables.
var (
	ErrRunCancelled       = errors.New("backup cancelled")
	ErrSourceMissing      = errors.New("source folder does not exist")
	ErrSourceNotDirectory = errors.New("source is not a directory")
	ErrTargetInsideSource = errors.New("backup and history folders must be outside the source folder")
	ErrNegativeTolerance  = errors.New("modification time tolerance cannot be negative")
)

// DirectoryCreationError reports a mirror directory that could not be created,
// typically because a file of the same name is in the way.
type DirectoryCreationError struct {
	Path string
	Err  error
}

func (e *DirectoryCreationError) Error() string {
	return fmt.Sprintf("cannot create directory %s: %v", e.Path, e.Err)
}

func (e *DirectoryCreationError) Unwrap() error { return e.Err }

// SourceUnreadableError reports a source file that vanished or cannot be
// inspected between listing and reconciliation.
type SourceUnreadableError struct {
	Path string
	Err  error
}

func (e *SourceUnreadableError) Error() string {
	return fmt.Sprintf("cannot read source %s: %v", e.Path, e.Err)
}

func (e *SourceUnreadableError) Unwrap() error { return e.Err }

// Options is everything one run needs. There is no process-wide state.
type Options struct {
	SourcePath  string
	BackupPath  string
	HistoryPath string
	Retry       RetryPolicy
	Exclude     []string
	// ModTimeTolerance relaxes the staleness test for filesystems that
	// truncate timestamps (FAT, SMB).
	ModTimeTolerance time.Duration
	// CountFiles runs a counting pass first so RunStarted carries a total.
	CountFiles bool
}

// Engine runs backups. It is synchronous; use Start to run it on its own
// goroutine.
type Engine struct {
	Options

	FileOps      *fileops.FileOps // File operations (for dependency injection)
	TimeProvider TimeProvider     // Time provider (for dependency injection)
	Logger       *slog.Logger

	filter   *ExcludeFilter
	enricher pkgerrors.Enricher
	emitter  EventEmitter
}

// NewEngine creates an engine for opts on the real filesystem. Paths are
// made absolute so the inside-source check compares like with like.
func NewEngine(opts Options) (*Engine, error) {
	// Equal mtimes must never count as newer.
	if opts.ModTimeTolerance < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegativeTolerance, opts.ModTimeTolerance)
	}

	filter, err := NewExcludeFilter(opts.Exclude)
	if err != nil {
		return nil, err
	}

	for _, path := range []*string{&opts.SourcePath, &opts.BackupPath, &opts.HistoryPath} {
		abs, err := filepath.Abs(*path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", *path, err)
		}
		*path = abs
	}

	return &Engine{
		Options:      opts,
		FileOps:      fileops.NewRealFileOps(),
		TimeProvider: &RealTimeProvider{},
		Logger:       slog.New(slog.DiscardHandler),
		filter:       filter,
		enricher:     pkgerrors.NewEnricher(),
	}, nil
}

// OptionsFromConfig maps parsed configuration onto engine options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SourcePath:  cfg.SourcePath,
		BackupPath:  cfg.BackupPath,
		HistoryPath: cfg.HistoryPath,
		Retry: RetryPolicy{
			MaxRetries: cfg.Retries,
			Delay:      cfg.RetryDelay,
		},
		Exclude:          cfg.Exclude,
		ModTimeTolerance: cfg.ModTimeTolerance,
	}
}

// NewEngineFromConfig creates an engine from parsed configuration.
func NewEngineFromConfig(cfg *config.Config) (*Engine, error) {
	return NewEngine(OptionsFromConfig(cfg))
}

// RunBackup creates an engine for opts and runs it once.
func RunBackup(ctx context.Context, opts Options, logger *slog.Logger) (*Result, error) {
	engine, err := NewEngine(opts)
	if err != nil {
		return nil, err
	}

	if logger != nil {
		engine.Logger = logger
	}

	return engine.Run(ctx)
}

// SetEventEmitter sets the event emitter for TUI communication.
// The emitter is optional - if nil, no events will be emitted.
func (e *Engine) SetEventEmitter(emitter EventEmitter) {
	e.emitter = emitter
}

// GetEventEmitter returns the current event emitter.
func (e *Engine) GetEventEmitter() EventEmitter {
	return e.emitter
}

// emit sends an event if an emitter is configured.
func (e *Engine) emit(event Event) {
	if e.emitter != nil {
		e.emitter.Emit(event)
	}
}

// Run performs one backup. Precondition failures are returned before any
// filesystem change. Per-file and per-directory failures are recorded in the
// Result and never abort the walk. On cancellation the partial Result is
// returned together with an error wrapping ErrRunCancelled.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	result := &Result{StartTime: e.TimeProvider.Now()}

	if err := e.checkPreconditions(); err != nil {
		e.Logger.Error("Backup not started", "error", err)
		return nil, err
	}

	total := 0
	if e.CountFiles {
		counted, err := e.FileOps.CountRegularFiles(e.SourcePath, func(relPath string, _ bool) bool {
			return e.filter.Excluded(relPath)
		})
		if err != nil {
			e.Logger.Warn("Could not count source files", "error", err)
		}
		total = counted
	}

	e.Logger.Info("Backup started",
		"source", e.SourcePath,
		"backup", e.BackupPath,
		"history", e.HistoryPath,
		"retries", e.Retry.MaxRetries,
		"retry_delay", e.Retry.Delay,
	)
	e.emit(RunStarted{
		Source:     e.SourcePath,
		Backup:     e.BackupPath,
		History:    e.HistoryPath,
		TotalFiles: total,
	})

	e.walk(ctx, ".", result)

	result.Duration = e.TimeProvider.Now().Sub(result.StartTime)
	e.emit(RunComplete{Result: result})

	if err := ctx.Err(); err != nil {
		e.Logger.Warn("Backup cancelled", "summary", result.Summary())
		return result, fmt.Errorf("%w: %w", ErrRunCancelled, err)
	}

	e.Logger.Info("Backup process completed.",
		"summary", result.Summary(),
		"bytes", formatters.FormatBytes(result.BytesCopied),
		"duration", formatters.FormatDuration(result.Duration),
	)

	return result, nil
}

// checkPreconditions validates the roots and creates the backup and history
// roots. Nothing is created unless the source checks pass.
func (e *Engine) checkPreconditions() error {
	info, err := e.FileOps.Stat(e.SourcePath)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrSourceMissing, e.SourcePath)
	}
	if err != nil {
		return fmt.Errorf("cannot access source folder: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrSourceNotDirectory, e.SourcePath)
	}

	for _, target := range []string{e.BackupPath, e.HistoryPath} {
		if isWithin(e.SourcePath, target) {
			return fmt.Errorf("%w: %s is inside %s", ErrTargetInsideSource, target, e.SourcePath)
		}
	}

	for _, root := range []string{e.BackupPath, e.HistoryPath} {
		if err := e.ensureDirectory(root); err != nil {
			return err
		}
	}

	return nil
}

// isWithin reports whether target is root or below it.
func isWithin(root, target string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(target))
	if err != nil {
		return false
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
