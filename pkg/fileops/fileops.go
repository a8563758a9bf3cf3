// Package fileops provides the file operations the backup engine performs:
// copying with preserved modification time, moving files into history, and
// creating mirrored directories.
package fileops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joe/histsync/pkg/filesystem"
)

// Exported constants.
const (
	// BufferSize is the size of the buffer used for file copy operations (32KB)
	BufferSize = 32 * 1024
	// DefaultDirPermissions is the default permission mode for created directories
	DefaultDirPermissions = 0o750
)

// Exported variables.
var (
	ErrCopyCancelled = errors.New("copy cancelled")
)

// CopyStats contains timing information about a copy operation
type CopyStats struct {
	BytesCopied int64
	ReadTime    time.Duration
	WriteTime   time.Duration
}

// ProgressCallback is called during file operations to report progress
type ProgressCallback func(bytesTransferred int64, totalBytes int64, currentFile string)

// SkipFunc reports whether an entry found while counting should be ignored.
// Returning true for a directory ignores everything beneath it.
type SkipFunc func(relPath string, isDir bool) bool

// FileOps provides file operations over an injected filesystem so the engine
// can run against the in-memory mock in tests.
type FileOps struct {
	FS filesystem.FileSystem
}

// NewFileOps creates a new FileOps instance with the given filesystem.
func NewFileOps(fs filesystem.FileSystem) *FileOps {
	return &FileOps{FS: fs}
}

// NewRealFileOps creates a new FileOps instance using the real filesystem.
func NewRealFileOps() *FileOps {
	return &FileOps{FS: filesystem.NewRealFileSystem()}
}

// CopyFileWithStats copies src over dst and then stamps dst with the source
// modification time. dst's parent must exist. If cancelChan is closed the copy
// stops between buffer chunks. A failed or cancelled copy removes the partial
// dst.
//
//nolint:lll,funlen // Long function signature with channel parameter
func (fo *FileOps) CopyFileWithStats(src, dst string, progress ProgressCallback, cancelChan <-chan struct{}) (*CopyStats, error) {
	stats := &CopyStats{}

	err := checkCancellation(cancelChan)
	if err != nil {
		return stats, err
	}

	sourceFile, err := fo.FS.Open(src)
	if err != nil {
		return stats, fmt.Errorf("failed to open source file %s: %w", src, err)
	}

	defer func() {
		_ = sourceFile.Close()
	}()

	sourceInfo, err := sourceFile.Stat()
	if err != nil {
		return stats, fmt.Errorf("failed to stat source file %s: %w", src, err)
	}

	destFile, err := fo.FS.Create(dst)
	if err != nil {
		return stats, fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}

	copyCompleted := false
	destClosed := false

	defer func() {
		if !destClosed {
			_ = destFile.Close()
		}
		if !copyCompleted {
			_ = fo.FS.Remove(dst)
		}
	}()

	written, err := copyLoop(sourceFile, destFile, stats, sourceInfo.Size(), src, progress, cancelChan)
	if err != nil {
		return stats, fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	stats.BytesCopied = written

	// Close before Chtimes; SMB shares reset mtime on the final flush.
	destClosed = true

	err = destFile.Close()
	if err != nil {
		return stats, fmt.Errorf("failed to close destination file %s: %w", dst, err)
	}

	err = fo.FS.Chtimes(dst, sourceInfo.ModTime(), sourceInfo.ModTime())
	if err != nil {
		return stats, fmt.Errorf("failed to preserve modification time for %s: %w", dst, err)
	}

	copyCompleted = true

	return stats, nil
}

// MoveFile moves src to dst, replacing dst if it exists. When src and dst are
// on different volumes the rename fails with EXDEV and the file is copied
// (modification time included) and the original removed instead.
func (fo *FileOps) MoveFile(src, dst string) error {
	err := fo.FS.Rename(src, dst)
	if err == nil {
		return nil
	}

	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("failed to move %s to %s: %w", src, dst, err)
	}

	_, err = fo.CopyFileWithStats(src, dst, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to move %s to %s across volumes: %w", src, dst, err)
	}

	err = fo.FS.Remove(src)
	if err != nil {
		return fmt.Errorf("failed to remove %s after cross-volume move: %w", src, err)
	}

	return nil
}

// EnsureDir creates path and any missing parents. Existing directories are
// left alone; a non-directory in the way is an error.
func (fo *FileOps) EnsureDir(path string) error {
	err := fo.FS.MkdirAll(path, DefaultDirPermissions)
	if err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}

	return nil
}

// Stat returns file information
func (fo *FileOps) Stat(path string) (os.FileInfo, error) {
	info, err := fo.FS.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return info, nil
}

// ReadDir lists the direct children of a directory sorted by name.
func (fo *FileOps) ReadDir(path string) ([]os.DirEntry, error) {
	entries, err := fo.FS.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", path, err)
	}

	return entries, nil
}

// CountRegularFiles counts the regular files under rootPath. Symlinks and
// special files are not counted; entries for which skip returns true are
// ignored, and a skipped directory hides its whole subtree.
func (fo *FileOps) CountRegularFiles(rootPath string, skip SkipFunc) (int, error) {
	scanner := fo.FS.Scan(rootPath)
	count := 0

	var skippedDirs []string

	for info, ok := scanner.Next(); ok; info, ok = scanner.Next() {
		if underAny(info.RelativePath, skippedDirs) {
			continue
		}

		if skip != nil && skip(info.RelativePath, info.IsDir) {
			if info.IsDir {
				skippedDirs = append(skippedDirs, info.RelativePath)
			}

			continue
		}

		if info.IsRegular() {
			count++
		}
	}

	err := scanner.Err()
	if err != nil {
		return count, fmt.Errorf("failed to count files in %s: %w", rootPath, err)
	}

	return count, nil
}

// checkCancellation checks if the copy operation has been cancelled.
func checkCancellation(cancelChan <-chan struct{}) error {
	if cancelChan == nil {
		return nil
	}

	select {
	case <-cancelChan:
		return ErrCopyCancelled
	default:
		return nil
	}
}

// copyLoop performs the actual file copy with progress tracking and timing.
//
//nolint:lll // Long function signature with many parameters including channel
func copyLoop(sourceFile io.Reader, destFile io.Writer, stats *CopyStats, sourceSize int64, srcPath string, progress ProgressCallback, cancelChan <-chan struct{}) (int64, error) {
	var written int64

	buf := make([]byte, BufferSize)

	for {
		err := checkCancellation(cancelChan)
		if err != nil {
			return written, err
		}

		readStart := time.Now()
		nr, err := sourceFile.Read(buf) //nolint:varnamelen // nr is idiomatic for bytes read
		stats.ReadTime += time.Since(readStart)

		if nr > 0 {
			writeStart := time.Now()
			nw, werr := destFile.Write(buf[0:nr]) //nolint:varnamelen // nw is idiomatic for bytes written
			stats.WriteTime += time.Since(writeStart)

			if werr != nil {
				return written, fmt.Errorf("failed to write to destination: %w", werr)
			}

			if nr != nw {
				return written, fmt.Errorf("short write: %w", io.ErrShortWrite)
			}

			written += int64(nw)

			if progress != nil {
				progress(written, sourceSize, srcPath)
			}
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return written, fmt.Errorf("failed to read from source: %w", err)
		}
	}

	return written, nil
}

func underAny(relPath string, dirs []string) bool {
	for _, dir := range dirs {
		if strings.HasPrefix(relPath, dir+string(filepath.Separator)) {
			return true
		}
	}

	return false
}
