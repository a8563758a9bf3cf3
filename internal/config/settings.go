package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Settings is what histsync remembers between runs.
type Settings struct {
	Paths   PathSettings   `toml:"paths"`
	Filters FilterSettings `toml:"filters"`
}

// PathSettings holds the three folders of the last run.
type PathSettings struct {
	SourceFolder  string `toml:"source_folder"`
	BackupFolder  string `toml:"backup_folder"`
	HistoryFolder string `toml:"history_folder"`
}

// FilterSettings holds exclude globs.
type FilterSettings struct {
	Exclude []string `toml:"exclude,omitempty"`
}

// Manager handles reading and writing settings.
type Manager struct{}

// Read decodes Settings from the provided reader.
func (m *Manager) Read(r io.Reader) (*Settings, error) {
	var settings Settings
	if _, err := toml.NewDecoder(r).Decode(&settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &settings, nil
}

// Write encodes Settings to the provided writer.
func (m *Manager) Write(w io.Writer, settings *Settings) error {
	if err := toml.NewEncoder(w).Encode(settings); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return nil
}

// SettingsStore persists Settings in a TOML file.
type SettingsStore struct {
	path    string
	manager *Manager
}

// NewSettingsStore returns a store backed by the file at path.
func NewSettingsStore(path string) *SettingsStore {
	return &SettingsStore{path: path, manager: &Manager{}}
}

// Path returns the settings file location.
func (s *SettingsStore) Path() string {
	return s.path
}

// Load reads the settings file. A missing file yields empty settings.
func (s *SettingsStore) Load() (*Settings, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open settings file: %w", err)
	}
	defer f.Close()

	settings, err := s.manager.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading settings from %s: %w", s.path, err)
	}
	return settings, nil
}

// Save writes settings, creating the parent directory if needed.
func (s *SettingsStore) Save(settings *Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create settings file: %w", err)
	}

	if err := s.manager.Write(f, settings); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing settings to %s: %w", s.path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close settings file: %w", err)
	}
	return nil
}
