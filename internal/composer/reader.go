package composer

import (
	"context"
	"io"
)

// Wraps an [io.Reader] and stops reading once a context is done.
//
// A read already blocked in the underlying reader is not interrupted; the
// cancellation is observed on the next call.
type cancelReader struct {
	ctx context.Context
	r   io.Reader
}

// Creates a [cancelReader] reading from r until ctx is done.
func newCancelReader(ctx context.Context, r io.Reader) *cancelReader {
	return &cancelReader{ctx: ctx, r: r}
}

// Delegates to the underlying reader unless the context is done.
func (c *cancelReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// A writer that rejects every write with a fixed error.
//
// Stands in for a core entry that could not be started.
type failedWriter struct {
	err error
}

func (w failedWriter) Write([]byte) (int, error) {
	return 0, w.err
}
