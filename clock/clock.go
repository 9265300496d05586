// Package clock abstrai a fonte de tempo para que TTL de cache e janelas de
// rate limit possam ser testados sem sleep.
package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

// Real usa time.Now.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Fake é um relógio manual. Seguro para uso concorrente.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

// OrReal devolve c, ou Real quando c é nil.
func OrReal(c Clock) Clock {
	if c == nil {
		return Real{}
	}
	return c
}
