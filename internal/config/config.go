// Package config handles application configuration and command-line argument parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alexflint/go-arg"
)

// Exported constants.
const (
	DefaultLogFile    = "backup_log.log"
	DefaultRetries    = 1
	DefaultRetryDelay = 5 * time.Second
)

// Exported variables.
var (
	ErrBackupRequired    = errors.New("backup path is required")
	ErrHistoryRequired   = errors.New("history path is required")
	ErrSourceRequired    = errors.New("source path is required")
	ErrNegativeRetries   = errors.New("retries cannot be negative")
	ErrNegativeDelay     = errors.New("retry delay cannot be negative")
	ErrNegativeTolerance = errors.New("modification time tolerance cannot be negative")
)

// Config holds the application configuration
type Config struct {
	SourcePath       string        `arg:"-s,--source" help:"Source directory to back up"`
	BackupPath       string        `arg:"-b,--backup" help:"Backup directory that mirrors the source"`
	HistoryPath      string        `arg:"--history" help:"History directory that receives superseded backup copies"`
	InteractiveMode  bool          `arg:"-i,--interactive" help:"Run in interactive mode"`
	Retries          int           `arg:"-r,--retries" help:"Retries for a file that is locked or permission-denied"`
	RetryDelay       time.Duration `arg:"--retry-delay" help:"Wait between retries"`
	Exclude          []string      `arg:"-x,--exclude,separate" help:"Glob of files or directories to leave out (repeatable, matched case-insensitively)"`
	ModTimeTolerance time.Duration `arg:"--mtime-tolerance" help:"Treat the source as newer only when it beats the backup by more than this"`
	LogFile          string        `arg:"--log-file" help:"Log file (appended)"`
	SettingsFile     string        `arg:"--settings" help:"Settings file remembering the last used folders"`
	Verbose          bool          `arg:"-v,--verbose" help:"Log debug detail"`
}

// Description returns the program description for go-arg
func (Config) Description() string {
	return "Incremental one-way backup that keeps the previous version of every changed file"
}

// Version returns the version string for go-arg
func (Config) Version() string {
	return "histsync 1.0.0"
}

// DefaultSettingsPath returns the per-user settings location, falling back
// to the working directory when the user config dir is unknown.
func DefaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "settings.toml"
	}

	return filepath.Join(dir, "histsync", "settings.toml")
}

// ParseFlags parses command-line flags and returns configuration. Settings
// remembered from the previous run fill any folder left unset on the
// command line.
func ParseFlags() (*Config, error) {
	cfg := &Config{
		Retries:      DefaultRetries,
		RetryDelay:   DefaultRetryDelay,
		LogFile:      DefaultLogFile,
		SettingsFile: DefaultSettingsPath(),
	}

	arg.MustParse(cfg)

	settings, err := NewSettingsStore(cfg.SettingsFile).Load()
	if err != nil {
		return nil, err
	}

	cfg.ApplySettings(settings)

	return PostProcessConfig(cfg)
}

// ApplySettings fills empty fields from saved settings. Flags always win.
func (cfg *Config) ApplySettings(settings *Settings) {
	if settings == nil {
		return
	}

	if cfg.SourcePath == "" {
		cfg.SourcePath = settings.Paths.SourceFolder
	}

	if cfg.BackupPath == "" {
		cfg.BackupPath = settings.Paths.BackupFolder
	}

	if cfg.HistoryPath == "" {
		cfg.HistoryPath = settings.Paths.HistoryFolder
	}

	if len(cfg.Exclude) == 0 {
		cfg.Exclude = append([]string(nil), settings.Filters.Exclude...)
	}
}

// Settings returns the values of cfg worth remembering for the next run.
func (cfg *Config) Settings() *Settings {
	return &Settings{
		Paths: PathSettings{
			SourceFolder:  cfg.SourcePath,
			BackupFolder:  cfg.BackupPath,
			HistoryFolder: cfg.HistoryPath,
		},
		Filters: FilterSettings{
			Exclude: append([]string(nil), cfg.Exclude...),
		},
	}
}

// PostProcessConfig applies post-processing logic to a parsed config
func PostProcessConfig(cfg *Config) (*Config, error) {
	// Missing folders mean there is nothing to run headless
	if cfg.SourcePath == "" || cfg.BackupPath == "" || cfg.HistoryPath == "" {
		cfg.InteractiveMode = true
	}

	if !cfg.InteractiveMode {
		if err := cfg.ValidatePaths(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// ValidatePaths validates the three folders and the retry policy. The backup
// and history folders may be missing (they are created on demand) but must be
// directories if they exist.
func (cfg *Config) ValidatePaths() error {
	if cfg.SourcePath == "" {
		return ErrSourceRequired
	}

	if cfg.BackupPath == "" {
		return ErrBackupRequired
	}

	if cfg.HistoryPath == "" {
		return ErrHistoryRequired
	}

	sourceInfo, err := os.Stat(cfg.SourcePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("source path does not exist: %s", cfg.SourcePath)
	}
	if err != nil {
		return fmt.Errorf("cannot access source path: %w", err)
	}
	if !sourceInfo.IsDir() {
		return fmt.Errorf("source path is not a directory: %s", cfg.SourcePath)
	}

	if err := checkOptionalDir("backup", cfg.BackupPath); err != nil {
		return err
	}

	if err := checkOptionalDir("history", cfg.HistoryPath); err != nil {
		return err
	}

	if cfg.Retries < 0 {
		return ErrNegativeRetries
	}

	if cfg.RetryDelay < 0 {
		return ErrNegativeDelay
	}

	if cfg.ModTimeTolerance < 0 {
		return ErrNegativeTolerance
	}

	return nil
}

func checkOptionalDir(label, path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access %s path: %w", label, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s path is not a directory: %s", label, path)
	}

	return nil
}
