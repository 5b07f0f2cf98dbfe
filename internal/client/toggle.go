package client

import "sync"

// Toggle is an optimistic boolean with a companion counter, used for
// character like/favorite state. Flip applies the new state immediately,
// invokes the backend mutation, and restores the exact pre-flip values if
// the mutation fails, so the counter never drifts partially.
type Toggle struct {
	mu     sync.Mutex
	active bool
	count  int64
}

// NewToggle seeds the toggle from authoritative state.
func NewToggle(active bool, count int64) *Toggle {
	return &Toggle{active: active, count: count}
}

// State returns the client-visible (possibly predicted) state.
func (t *Toggle) State() (active bool, count int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active, t.count
}

// Flip toggles optimistically, then runs mutate with the new active state.
// On mutation failure the previous state is restored and the error returned.
// Callers serialize flips per toggle; overlapping mutations for the same
// toggle would race on the backend anyway.
func (t *Toggle) Flip(mutate func(nowActive bool) error) error {
	t.mu.Lock()
	prevActive, prevCount := t.active, t.count
	t.active = !t.active
	if t.active {
		t.count++
	} else {
		t.count--
	}
	nowActive := t.active
	t.mu.Unlock()

	if err := mutate(nowActive); err != nil {
		t.mu.Lock()
		t.active, t.count = prevActive, prevCount
		t.mu.Unlock()
		return err
	}
	return nil
}

// Reconcile installs authoritative state, discarding any prediction.
func (t *Toggle) Reconcile(active bool, count int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = active
	t.count = count
}
