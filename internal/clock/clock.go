// Package clock abstracts the wall clock so timed UI state, such as the
// shift banner's auto-dismiss, can be driven deterministically in tests.
package clock

import "time"

// Clock is implemented by Real and by *FakeClock.
type Clock interface {
	Now() time.Time

	// AfterFunc calls f after d elapses. The returned Timer cancels the
	// pending call.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a cancellable scheduled callback.
type Timer struct {
	stopFunc func() bool
}

// Stop prevents the callback from running. Returns false if it already
// ran or was already stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }

type realClock struct{}

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	t := time.AfterFunc(d, f)
	return &Timer{stopFunc: t.Stop}
}
