package lifecycle

import "sync"

// Gate reports whether the process is foreground and runnable.
type Gate interface {
	// Active is a non-blocking point-in-time check.
	Active() bool
	// RunWhenActive invokes fn once the gate is active. If the gate is
	// already active, fn runs promptly. fn runs on its own goroutine.
	RunWhenActive(fn func())
}

// Switch is a manually driven Gate. The embedding process flips it as the
// host platform reports foreground and runnability changes.
type Switch struct {
	mu      sync.Mutex
	active  bool
	waiters []func()
}

// NewSwitch returns a Switch in the given initial state.
func NewSwitch(active bool) *Switch {
	return &Switch{active: active}
}

// Active reports the current state.
func (s *Switch) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetActive updates the state. A transition to active releases every pending
// callback exactly once.
func (s *Switch) SetActive(active bool) {
	s.mu.Lock()
	wasActive := s.active
	s.active = active
	var pending []func()
	if active && !wasActive {
		pending = s.waiters
		s.waiters = nil
	}
	s.mu.Unlock()

	for _, fn := range pending {
		go fn()
	}
}

// RunWhenActive schedules fn for the next active window.
func (s *Switch) RunWhenActive(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		go fn()
		return
	}
	s.waiters = append(s.waiters, fn)
	s.mu.Unlock()
}

type alwaysActive struct{}

func (alwaysActive) Active() bool            { return true }
func (alwaysActive) RunWhenActive(fn func()) { go fn() }

// Always returns a Gate that is permanently active, for contexts where no
// host lifecycle exists (one-shot CLI runs, tests).
func Always() Gate {
	return alwaysActive{}
}
