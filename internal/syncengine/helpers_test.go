//nolint:varnamelen // Test files use idiomatic short variable names (t, g, fs, etc.)
package syncengine_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/joe/histsync/internal/logging"
	"github.com/joe/histsync/internal/syncengine"
	"github.com/joe/histsync/pkg/fileops"
	"github.com/joe/histsync/pkg/filesystem"
)

// fakeClock records retry delays instead of sleeping.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)

	return nil
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]time.Duration(nil), c.sleeps...)
}

// recordingEmitter captures events; onEmit, if set, runs for each event.
type recordingEmitter struct {
	mu     sync.Mutex
	events []syncengine.Event
	onEmit func(syncengine.Event)
}

func (r *recordingEmitter) Emit(event syncengine.Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()

	if r.onEmit != nil {
		r.onEmit(event)
	}
}

func (r *recordingEmitter) Events() []syncengine.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]syncengine.Event(nil), r.events...)
}

// eventsOfType returns the captured events of type T in order.
func eventsOfType[T syncengine.Event](r *recordingEmitter) []T {
	var matched []T

	for _, event := range r.Events() {
		if typed, ok := event.(T); ok {
			matched = append(matched, typed)
		}
	}

	return matched
}

// syncBuffer is a bytes.Buffer safe for the logger and the test to share.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

// harness is an engine wired to the in-memory filesystem.
type harness struct {
	fs      *filesystem.MockFileSystem
	engine  *syncengine.Engine
	clock   *fakeClock
	emitter *recordingEmitter
	logs    *syncBuffer
}

func defaultOptions() syncengine.Options {
	return syncengine.Options{
		SourcePath:  "/src",
		BackupPath:  "/backup",
		HistoryPath: "/history",
		Retry:       syncengine.DefaultRetryPolicy(),
	}
}

func newHarness(t *testing.T, fs *filesystem.MockFileSystem, opts syncengine.Options) *harness {
	t.Helper()

	engine, err := syncengine.NewEngine(opts)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	h := &harness{
		fs:      fs,
		engine:  engine,
		clock:   newFakeClock(),
		emitter: &recordingEmitter{},
		logs:    &syncBuffer{},
	}

	engine.FileOps = fileops.NewFileOps(fs)
	engine.TimeProvider = h.clock
	engine.Logger = slog.New(logging.NewHandler(h.logs, slog.LevelDebug))
	engine.SetEventEmitter(h.emitter)

	return h
}

func (h *harness) run(t *testing.T) *syncengine.Result {
	t.Helper()

	result, err := h.engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	return result
}

func (h *harness) content(t *testing.T, path string) (string, time.Time) {
	t.Helper()

	data, modTime, err := h.fs.GetFile(path)
	if err != nil {
		t.Fatalf("GetFile(%s) error = %v", path, err)
	}

	return string(data), modTime
}
