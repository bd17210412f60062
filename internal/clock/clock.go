package clock

import "time"

// Clock abstracts time for deterministic ticks and tests.
type Clock interface {
	Now() time.Time
}

type Real struct{}

// Now returns the current time using the system clock.
func (Real) Now() time.Time {
	return time.Now()
}

// Fake is a manually driven clock. Single-goroutine use only, like the game loop.
type Fake struct {
	now time.Time
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	return f.now
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// Set pins the clock to t.
func (f *Fake) Set(t time.Time) {
	f.now = t
}
