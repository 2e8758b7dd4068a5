package fit

import (
	"context"

	"github.com/google/uuid"
)

// Run is a fit executing on its own goroutine. Progress must be drained (or
// Wait called) for the run to advance.
type Run struct {
	ID       uuid.UUID
	progress chan Progress
	done     chan Completion
	cancel   context.CancelFunc
}

// Start validates job and launches the estimator in the background. Progress
// snapshots arrive in iteration order; exactly one Completion follows the
// close of the progress channel.
func (e *Estimator) Start(ctx context.Context, job Job) (*Run, error) {
	if _, err := newProblem(job); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	r := &Run{
		ID:       uuid.New(),
		progress: make(chan Progress),
		done:     make(chan Completion, 1),
		cancel:   cancel,
	}
	go func() {
		defer cancel()
		c, _ := e.fit(ctx, r.ID, job, func(p Progress) bool {
			select {
			case r.progress <- p:
				return true
			case <-ctx.Done():
				return false
			}
		})
		close(r.progress)
		r.done <- c
	}()
	return r, nil
}

// Progress streams one snapshot per iteration; closed when the run ends.
func (r *Run) Progress() <-chan Progress { return r.progress }

// Done yields the completion once.
func (r *Run) Done() <-chan Completion { return r.done }

// Cancel asks the run to stop at the next iteration boundary.
func (r *Run) Cancel() { r.cancel() }

// Wait discards remaining progress and returns the completion. It consumes
// the value from Done, so use one or the other.
func (r *Run) Wait() Completion {
	for range r.progress {
	}
	return <-r.done
}
