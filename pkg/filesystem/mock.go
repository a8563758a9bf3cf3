package filesystem

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"
)

// Op names a MockFileSystem operation for fault injection.
type Op string

// Operations that can be made to fail with FailNext.
const (
	OpChtimes Op = "chtimes"
	OpCreate  Op = "create"
	OpMkdir   Op = "mkdir"
	OpOpen    Op = "open"
	OpReadDir Op = "readdir"
	OpRemove  Op = "remove"
	OpRename  Op = "rename"
	OpStat    Op = "stat"
	OpWrite   Op = "write"
)

// MockFileSystem is an in-memory filesystem implementation for testing.
// Paths are cleaned with filepath.Clean; entries may be files, directories,
// or symbolic links.
type MockFileSystem struct {
	mu    sync.RWMutex
	files map[string]*mockFile

	faultMu sync.Mutex
	faults  []*fault
	calls   map[callKey]int
}

// mockFile represents a file in the mock filesystem.
type mockFile struct {
	path    string
	data    []byte
	modTime time.Time
	mode    os.FileMode
	target  string // symlink target
}

func (f *mockFile) isDir() bool { return f.mode.IsDir() }

func (f *mockFile) info(name string) *mockFileInfo {
	return &mockFileInfo{
		name:    name,
		size:    int64(len(f.data)),
		modTime: f.modTime,
		mode:    f.mode,
	}
}

type fault struct {
	op        Op
	path      string
	err       error
	remaining int // negative means forever
}

type callKey struct {
	op   Op
	path string
}

// mockFileInfo implements os.FileInfo for mock files.
type mockFileInfo struct {
	name    string
	size    int64
	modTime time.Time
	mode    os.FileMode
}

func (fi *mockFileInfo) Name() string       { return fi.name }
func (fi *mockFileInfo) Size() int64        { return fi.size }
func (fi *mockFileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *mockFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *mockFileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *mockFileInfo) Sys() any           { return nil }

// mockFileHandle implements the File interface for reading/writing.
type mockFileHandle struct {
	fs     *MockFileSystem
	path   string
	reader *bytes.Reader
	writer *bytes.Buffer
	closed bool
}

func (f *mockFileHandle) Read(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	if f.reader == nil {
		return 0, io.EOF
	}
	return f.reader.Read(p)
}

func (f *mockFileHandle) Write(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	if err := f.fs.checkFault(OpWrite, f.path); err != nil {
		return 0, err
	}
	if f.writer == nil {
		f.writer = &bytes.Buffer{}
	}
	return f.writer.Write(p)
}

func (f *mockFileHandle) Close() error {
	if f.closed {
		return os.ErrClosed
	}
	f.closed = true

	// If we were writing, save the data
	if f.writer != nil {
		f.fs.mu.Lock()
		defer f.fs.mu.Unlock()

		if file, exists := f.fs.files[f.path]; exists {
			file.data = f.writer.Bytes()
		}
	}

	return nil
}

func (f *mockFileHandle) Stat() (os.FileInfo, error) {
	if f.closed {
		return nil, os.ErrClosed
	}

	f.fs.mu.RLock()
	defer f.fs.mu.RUnlock()

	file, exists := f.fs.files[f.path]
	if !exists {
		return nil, os.ErrNotExist
	}

	return file.info(filepath.Base(f.path)), nil
}

// NewMockFileSystem creates a new in-memory filesystem.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		files: make(map[string]*mockFile),
		calls: make(map[callKey]int),
	}
}

// FailNext makes the next `times` calls of op on path fail with err.
// A negative count fails every call. The error is wrapped in *fs.PathError
// so errors.Is sees through it the way it does for real os errors.
func (fs *MockFileSystem) FailNext(op Op, path string, err error, times int) {
	fs.faultMu.Lock()
	defer fs.faultMu.Unlock()

	fs.faults = append(fs.faults, &fault{
		op:        op,
		path:      filepath.Clean(path),
		err:       err,
		remaining: times,
	})
}

// Calls returns how many times op was invoked on path, including failed calls.
func (fs *MockFileSystem) Calls(op Op, path string) int {
	fs.faultMu.Lock()
	defer fs.faultMu.Unlock()

	return fs.calls[callKey{op: op, path: filepath.Clean(path)}]
}

func (fs *MockFileSystem) checkFault(op Op, path string) error {
	fs.faultMu.Lock()
	defer fs.faultMu.Unlock()

	fs.calls[callKey{op: op, path: path}]++

	for _, f := range fs.faults {
		if f.op != op || f.path != path || f.remaining == 0 {
			continue
		}
		if f.remaining > 0 {
			f.remaining--
		}
		return &os.PathError{Op: string(op), Path: path, Err: f.err}
	}

	return nil
}

// Scan returns an iterator over all entries in a directory tree.
func (fs *MockFileSystem) Scan(path string) FileScanner {
	return newMockFileScanner(fs, filepath.Clean(path))
}

// Stat returns file information, following symbolic links.
func (fs *MockFileSystem) Stat(path string) (os.FileInfo, error) {
	path = filepath.Clean(path)
	if err := fs.checkFault(OpStat, path); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	file, exists := fs.files[path]
	if exists && file.mode&os.ModeSymlink != 0 {
		file, exists = fs.files[file.target]
	}
	if !exists {
		return nil, &os.PathError{Op: "stat", Path: path, Err: os.ErrNotExist}
	}

	return file.info(filepath.Base(path)), nil
}

// Lstat returns file information without following symbolic links.
func (fs *MockFileSystem) Lstat(path string) (os.FileInfo, error) {
	path = filepath.Clean(path)
	if err := fs.checkFault(OpStat, path); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	file, exists := fs.files[path]
	if !exists {
		return nil, &os.PathError{Op: "lstat", Path: path, Err: os.ErrNotExist}
	}

	return file.info(filepath.Base(path)), nil
}

// ReadDir lists the direct children of a directory sorted by name.
func (fs *MockFileSystem) ReadDir(path string) ([]os.DirEntry, error) {
	path = filepath.Clean(path)
	if err := fs.checkFault(OpReadDir, path); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	dir, exists := fs.files[path]
	if !exists {
		return nil, &os.PathError{Op: "readdir", Path: path, Err: os.ErrNotExist}
	}
	if !dir.isDir() {
		return nil, &os.PathError{Op: "readdir", Path: path, Err: syscall.ENOTDIR}
	}

	var entries []os.DirEntry
	for p, file := range fs.files {
		if p != path && filepath.Dir(p) == path {
			entries = append(entries, toDirEntry(file.info(filepath.Base(p))))
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	return entries, nil
}

// Remove removes a file or empty directory.
func (fs *MockFileSystem) Remove(path string) error {
	path = filepath.Clean(path)
	if err := fs.checkFault(OpRemove, path); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	file, exists := fs.files[path]
	if !exists {
		return &os.PathError{Op: "remove", Path: path, Err: os.ErrNotExist}
	}

	if file.isDir() {
		for p := range fs.files {
			if strings.HasPrefix(p, path+string(filepath.Separator)) {
				return &os.PathError{Op: "remove", Path: path, Err: syscall.ENOTEMPTY}
			}
		}
	}

	delete(fs.files, path)
	return nil
}

// Rename moves a file, replacing newpath if it is a file. The parent of
// newpath must already exist, as with os.Rename.
func (fs *MockFileSystem) Rename(oldpath, newpath string) error {
	oldpath = filepath.Clean(oldpath)
	newpath = filepath.Clean(newpath)
	if err := fs.checkFault(OpRename, oldpath); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	file, exists := fs.files[oldpath]
	if !exists {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: os.ErrNotExist}
	}

	parent, exists := fs.files[filepath.Dir(newpath)]
	if !exists || !parent.isDir() {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: os.ErrNotExist}
	}

	if target, exists := fs.files[newpath]; exists && target.isDir() {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EISDIR}
	}

	if file.isDir() {
		prefix := oldpath + string(filepath.Separator)
		for p, child := range fs.files {
			if strings.HasPrefix(p, prefix) {
				child.path = filepath.Join(newpath, strings.TrimPrefix(p, prefix))
				fs.files[child.path] = child
				delete(fs.files, p)
			}
		}
	}

	file.path = newpath
	fs.files[newpath] = file
	delete(fs.files, oldpath)

	return nil
}

// Chtimes changes the access and modification times of a file.
func (fs *MockFileSystem) Chtimes(path string, _, mtime time.Time) error {
	path = filepath.Clean(path)
	if err := fs.checkFault(OpChtimes, path); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	file, exists := fs.files[path]
	if !exists {
		return &os.PathError{Op: "chtimes", Path: path, Err: os.ErrNotExist}
	}

	file.modTime = mtime
	return nil
}

// MkdirAll creates a directory and all necessary parents. It fails with
// ENOTDIR when a path component exists as a non-directory.
func (fs *MockFileSystem) MkdirAll(path string, perm os.FileMode) error {
	path = filepath.Clean(path)
	if err := fs.checkFault(OpMkdir, path); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.mkdirAllLocked(path, perm)
}

// mkdirAllLocked is the internal implementation that assumes the lock is held.
func (fs *MockFileSystem) mkdirAllLocked(path string, perm os.FileMode) error {
	if path == "." || path == string(filepath.Separator) {
		return nil
	}

	if existing, exists := fs.files[path]; exists {
		if !existing.isDir() {
			return &os.PathError{Op: "mkdir", Path: path, Err: syscall.ENOTDIR}
		}
		return nil
	}

	if err := fs.mkdirAllLocked(filepath.Dir(path), perm); err != nil {
		return err
	}

	fs.files[path] = &mockFile{
		path:    path,
		modTime: time.Now(),
		mode:    os.ModeDir | perm,
	}

	return nil
}

// Open opens a file for reading.
func (fs *MockFileSystem) Open(path string) (File, error) {
	path = filepath.Clean(path)
	if err := fs.checkFault(OpOpen, path); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	file, exists := fs.files[path]
	if !exists {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}

	if file.isDir() {
		return nil, &os.PathError{Op: "open", Path: path, Err: syscall.EISDIR}
	}

	return &mockFileHandle{
		fs:     fs,
		path:   path,
		reader: bytes.NewReader(file.data),
	}, nil
}

// Create creates or truncates a file for writing. Missing parents are created.
func (fs *MockFileSystem) Create(path string) (File, error) {
	path = filepath.Clean(path)
	if err := fs.checkFault(OpCreate, path); err != nil {
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if existing, exists := fs.files[path]; exists && existing.isDir() {
		return nil, &os.PathError{Op: "create", Path: path, Err: syscall.EISDIR}
	}

	if err := fs.mkdirAllLocked(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	fs.files[path] = &mockFile{
		path:    path,
		data:    []byte{},
		modTime: time.Now(),
		mode:    0o644,
	}

	return &mockFileHandle{
		fs:     fs,
		path:   path,
		writer: &bytes.Buffer{},
	}, nil
}

// Helper methods for testing

// AddFile adds a file to the mock filesystem with the given content and modtime.
func (fs *MockFileSystem) AddFile(path string, content []byte, modTime time.Time) {
	path = filepath.Clean(path)

	fs.mu.Lock()
	defer fs.mu.Unlock()

	_ = fs.mkdirAllLocked(filepath.Dir(path), 0o755)

	fs.files[path] = &mockFile{
		path:    path,
		data:    append([]byte(nil), content...),
		modTime: modTime,
		mode:    0o644,
	}
}

// AddDir adds a directory (and its parents) to the mock filesystem.
func (fs *MockFileSystem) AddDir(path string, modTime time.Time) {
	path = filepath.Clean(path)

	fs.mu.Lock()
	defer fs.mu.Unlock()

	_ = fs.mkdirAllLocked(filepath.Dir(path), 0o755)

	fs.files[path] = &mockFile{
		path:    path,
		modTime: modTime,
		mode:    os.ModeDir | 0o755,
	}
}

// AddSymlink adds a symbolic link at path pointing to target.
func (fs *MockFileSystem) AddSymlink(path, target string) {
	path = filepath.Clean(path)

	fs.mu.Lock()
	defer fs.mu.Unlock()

	_ = fs.mkdirAllLocked(filepath.Dir(path), 0o755)

	fs.files[path] = &mockFile{
		path:    path,
		modTime: time.Now(),
		mode:    os.ModeSymlink | 0o777,
		target:  filepath.Clean(target),
	}
}

// GetFile retrieves a file's content and modtime from the mock filesystem.
func (fs *MockFileSystem) GetFile(path string) ([]byte, time.Time, error) {
	path = filepath.Clean(path)

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	file, exists := fs.files[path]
	if !exists {
		return nil, time.Time{}, os.ErrNotExist
	}

	if file.isDir() {
		return nil, time.Time{}, syscall.EISDIR
	}

	return append([]byte(nil), file.data...), file.modTime, nil
}

// Exists checks if a path exists in the mock filesystem.
func (fs *MockFileSystem) Exists(path string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	_, exists := fs.files[filepath.Clean(path)]
	return exists
}

// IsDir reports whether path exists and is a directory.
func (fs *MockFileSystem) IsDir(path string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	file, exists := fs.files[filepath.Clean(path)]
	return exists && file.isDir()
}

// ListFiles returns all paths in the mock filesystem.
func (fs *MockFileSystem) ListFiles() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	paths := make([]string, 0, len(fs.files))
	for p := range fs.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func toDirEntry(info *mockFileInfo) os.DirEntry {
	return fs.FileInfoToDirEntry(info)
}
