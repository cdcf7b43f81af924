// Injectable time source.
//
// Code that waits on wall-clock time takes a [Clock] instead of calling the
// time package. Production wiring uses [Real]; tests use [Fake] and move time
// forward explicitly:
//
//	c := clock.Fake(time.Unix(0, 0))
//	go worker(c)
//	c.WaitForTimers(1)
//	c.Advance(time.Minute)
package clock
