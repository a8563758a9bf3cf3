package syncengine

import "context"

// Task is a backup running on its own goroutine.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
	result *Result
	err    error
}

// Start runs engine.Run on a new goroutine. Cancelling ctx or calling
// Task.Cancel stops the run between files, during a retry delay, or between
// copy chunks.
func Start(ctx context.Context, engine *Engine) *Task {
	ctx, cancel := context.WithCancel(ctx)

	task := &Task{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(task.done)
		defer cancel()

		task.result, task.err = engine.Run(ctx)
	}()

	return task
}

// Done is closed when the run has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the run finishes and returns its outcome.
func (t *Task) Wait() (*Result, error) {
	<-t.done
	return t.result, t.err
}

// Cancel asks the run to stop. It is safe to call more than once.
func (t *Task) Cancel() {
	t.cancel()
}
