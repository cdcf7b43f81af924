package supervisor

import "errors"

var (
	ErrDeadlineExceeded = errors.New("deadline exceeded")
	ErrWorkerLost       = errors.New("worker exited without reporting a result")
)
