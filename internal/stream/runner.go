package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/heightstream/internal/logger"
)

// Mode selects where the worker runs.
type Mode int

const (
	// Threaded runs the worker on its own goroutine at a fixed tick rate.
	Threaded Mode = iota
	// Inline runs one worker tick per Update call from the frame loop.
	Inline
)

// ParseMode converts a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "threaded":
		return Threaded, nil
	case "inline":
		return Inline, nil
	default:
		return 0, fmt.Errorf("stream: unknown worker mode %q", s)
	}
}

func (m Mode) String() string {
	if m == Inline {
		return "inline"
	}
	return "threaded"
}

// Runner drives a Worker in either mode behind the same Link, so callers do
// not care which one is active.
type Runner struct {
	mode     Mode
	worker   *Worker
	interval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner creates a runner. interval is only used in Threaded mode.
func NewRunner(mode Mode, worker *Worker, interval time.Duration) *Runner {
	return &Runner{mode: mode, worker: worker, interval: interval}
}

// Mode returns the execution mode.
func (r *Runner) Mode() Mode {
	return r.mode
}

// Link returns the worker's channel set.
func (r *Runner) Link() *Link {
	return r.worker.link
}

// Start launches the worker goroutine in Threaded mode. It is a no-op in
// Inline mode.
func (r *Runner) Start(ctx context.Context) {
	if r.mode != Threaded || r.cancel != nil {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop(ctx)
	}()
	logger.Info("terrain worker started",
		zap.Stringer("mode", r.mode),
		zap.Duration("interval", r.interval),
	)
}

func (r *Runner) loop(ctx context.Context) {
	for {
		start := time.Now()
		r.worker.Tick()

		// Sleep the rest of the interval so an idle worker stays cheap.
		wait := r.interval - time.Since(start)
		if wait <= 0 {
			wait = 0
		}
		select {
		case <-ctx.Done():
			return
		case <-r.worker.link.Done():
			return
		case <-time.After(wait):
		}
	}
}

// Update runs one worker tick in Inline mode. In Threaded mode the worker
// ticks on its own and Update does nothing.
func (r *Runner) Update() {
	if r.mode == Inline {
		r.worker.Tick()
	}
}

// Stop stops the worker goroutine, waits for it, and closes the link.
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
		r.wg.Wait()
		r.cancel = nil
	}
	r.worker.link.Close()
	logger.Info("terrain worker stopped", zap.Uint64("generated", r.worker.Generated()))
}
