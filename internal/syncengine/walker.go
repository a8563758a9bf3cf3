package syncengine

import (
	"context"
	"io/fs"
	"path/filepath"
)

// walk mirrors relDir and everything below it, depth-first. A directory's
// backup and history mirrors exist before any file inside it is reconciled.
func (e *Engine) walk(ctx context.Context, relDir string, result *Result) {
	if ctx.Err() != nil {
		return
	}

	sourceDir := filepath.Join(e.SourcePath, relDir)
	backupDir := filepath.Join(e.BackupPath, relDir)
	historyDir := filepath.Join(e.HistoryPath, relDir)

	for _, dir := range []string{backupDir, historyDir} {
		if err := e.ensureDirectory(dir); err != nil {
			e.directoryFailed(relDir, "Cannot create mirror directory, skipping subtree", err, result)
			return
		}
	}

	result.DirectoriesMirrored++
	e.emit(DirectoryMirrored{RelPath: relDir})

	entries, err := e.FileOps.ReadDir(sourceDir)
	if err != nil {
		e.directoryFailed(relDir, "Cannot list source directory, skipping subtree", err, result)
		return
	}

	var subdirs []string

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}

		relPath := entry.Name()
		if relDir != "." {
			relPath = filepath.Join(relDir, entry.Name())
		}

		if e.filter.Excluded(relPath) {
			e.Logger.Debug("Excluded", "path", relPath)
			if !entry.IsDir() {
				result.FilesExcluded++
			}
			continue
		}

		switch {
		case entry.IsDir():
			subdirs = append(subdirs, relPath)
		case entry.Type().IsRegular():
			e.processFile(ctx, e.entryFor(relDir, entry.Name()), result)
		default:
			e.skipSpecial(relPath, entry.Type(), result)
		}
	}

	for _, subdir := range subdirs {
		e.walk(ctx, subdir, result)
	}
}

// entryFor derives the positional triple for name inside relDir.
func (e *Engine) entryFor(relDir, name string) FileEntry {
	relPath := filepath.Join(relDir, name)

	return FileEntry{
		RelPath:     relPath,
		SourcePath:  filepath.Join(e.SourcePath, relPath),
		BackupPath:  filepath.Join(e.BackupPath, relPath),
		HistoryPath: filepath.Join(e.HistoryPath, relDir, name+HistorySuffix),
	}
}

// ensureDirectory creates path with its parents; existing directories are fine.
func (e *Engine) ensureDirectory(path string) error {
	if err := e.FileOps.EnsureDir(path); err != nil {
		return &DirectoryCreationError{Path: path, Err: err}
	}

	return nil
}

func (e *Engine) directoryFailed(relDir, msg string, err error, result *Result) {
	e.Logger.Error(msg, "dir", relDir, "error", err)
	result.DirectoriesFailed++
	e.emit(DirectoryFailed{RelPath: relDir, Err: err})
}

func (e *Engine) skipSpecial(relPath string, mode fs.FileMode, result *Result) {
	reason := describeMode(mode)
	e.Logger.Info("Skipped", "path", relPath, "reason", reason)
	result.FilesSkipped++
	e.emit(FileSkipped{RelPath: relPath, Reason: reason})
}

func describeMode(mode fs.FileMode) string {
	switch {
	case mode&fs.ModeSymlink != 0:
		return "symbolic link"
	case mode&fs.ModeNamedPipe != 0:
		return "named pipe"
	case mode&fs.ModeSocket != 0:
		return "socket"
	case mode&fs.ModeDevice != 0:
		return "device"
	default:
		return "not a regular file"
	}
}
