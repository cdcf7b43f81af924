package clock

import "time"

// Time operations used by the composer.
type Clock interface {

	// Returns the current time.
	Now() time.Time

	// Returns a channel that receives the current time once d has elapsed.
	// If d <= 0 the channel is ready immediately.
	After(d time.Duration) <-chan time.Time
}

// Returns a [Clock] backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
