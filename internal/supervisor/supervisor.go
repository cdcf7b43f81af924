package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cruciblehq/cdc/internal/clock"
	"github.com/cruciblehq/cdc/internal/exit"
)

// The unit of work run by the worker goroutine.
type Job func(ctx context.Context) error

// Runs a job under a deadline.
type Supervisor struct {
	timeout time.Duration // Deadline for the job.
	clock   clock.Clock   // Time source of the deadline timer.
	logger  *slog.Logger  // Receives the timeout and lost worker reports.
}

// Configures a [Supervisor].
type Option func(*Supervisor)

// Sets the time source. Defaults to [clock.Real].
func WithClock(c clock.Clock) Option {
	return func(s *Supervisor) { s.clock = c }
}

// Sets the logger. Defaults to [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(s *Supervisor) { s.logger = l }
}

// Creates a supervisor enforcing the given deadline.
func New(timeout time.Duration, opts ...Option) *Supervisor {
	s := &Supervisor{
		timeout: timeout,
		clock:   clock.Real(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Runs job on a worker goroutine and waits for it or for the deadline.
//
// The job's error is returned unchanged when it reports first. When the
// deadline elapses first, or the worker panics before reporting, Run returns
// an [*exit.Error] with code [exit.Timeout] wrapping [ErrDeadlineExceeded]
// or [ErrWorkerLost]. The worker's context is cancelled in every case once
// Run returns.
func (s *Supervisor) Run(ctx context.Context, job Job) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go s.work(ctx, job, done)

	select {
	case err := <-done:
		return err
	case <-s.clock.After(s.timeout):
		s.logger.Error("timeout during core dump processing", "timeout", s.timeout)
		return exit.New(exit.Timeout, fmt.Errorf("%w after %s", ErrDeadlineExceeded, s.timeout))
	}
}

// Runs the job and sends exactly one value on done.
//
// A panic is converted into [ErrWorkerLost] so that the supervisor never
// waits on a worker that can no longer report.
func (s *Supervisor) work(ctx context.Context, job Job, done chan<- error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("worker exited without reporting", "panic", r)
			done <- exit.New(exit.Timeout, fmt.Errorf("%w: %v", ErrWorkerLost, r))
		}
	}()
	done <- job(ctx)
}
