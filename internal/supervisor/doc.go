// Package supervisor bounds the wall-clock time of a composition job.
//
// [Supervisor.Run] starts the job on a single worker goroutine and races its
// completion against a timer. The worker reports through a one-slot channel
// that receives exactly one value. Whichever happens first wins: the job's
// result is returned unchanged, or the deadline produces an exit error with
// code 32.
//
// The deadline is not negotiated with the worker. Run cancels the worker's
// context and returns immediately; the caller is expected to end the process,
// which tears the worker down. The context cancellation only matters for
// hosts that keep running, such as tests, where it stops the worker from
// finishing an archive after the deadline was reported.
//
// Example usage:
//
//	sup := supervisor.New(10*time.Minute, supervisor.WithLogger(logger))
//	err := sup.Run(ctx, composer.Compose)
//	os.Exit(exit.Code(err))
package supervisor
