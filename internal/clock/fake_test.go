package clock

import (
	"testing"
	"time"
)

func TestFakeAfterFiresOnAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := Fake(start)

	ch := c.After(10 * time.Second)

	c.Advance(5 * time.Second)
	select {
	case <-ch:
		t.Fatal("waiter fired before its deadline")
	default:
	}

	c.Advance(5 * time.Second)
	select {
	case got := <-ch:
		if want := start.Add(10 * time.Second); !got.Equal(want) {
			t.Fatalf("fired at %v, want %v", got, want)
		}
	default:
		t.Fatal("waiter did not fire at its deadline")
	}
}

func TestFakeAfterNonPositive(t *testing.T) {
	c := Fake(time.Unix(0, 0))

	select {
	case <-c.After(0):
	default:
		t.Fatal("After(0) was not ready immediately")
	}
}

func TestFakeWaitForTimers(t *testing.T) {
	c := Fake(time.Unix(0, 0))
	fired := make(chan struct{})

	go func() {
		<-c.After(time.Second)
		close(fired)
	}()

	c.WaitForTimers(1)
	c.Advance(time.Second)

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("goroutine waiter never fired")
	}
}

func TestRealNow(t *testing.T) {
	before := time.Now()
	got := Real().Now()
	if got.Before(before) {
		t.Fatalf("Real().Now() = %v, before %v", got, before)
	}
}
