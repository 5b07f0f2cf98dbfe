// Package client holds the state machines a UI layer needs to mirror server
// state optimistically: a credit meter that predicts balances on send, and a
// toggle that flips like/favorite state before the backend confirms it.
// Predicted values are never persisted; authoritative data always wins.
package client

import "sync"

// BalanceMeter tracks the user's credit balance on the client. It is driven
// by two sources: authoritative balances from the live subscription
// (Reconcile) and optimistic decrements applied the instant a send is
// attempted (TrySpend). Predictions exist only between a send and the next
// authoritative update.
type BalanceMeter struct {
	mu            sync.Mutex
	authoritative int64
	predicted     int64 // sum of optimistic decrements not yet confirmed
}

// NewBalanceMeter seeds the meter from an authoritative fetch.
func NewBalanceMeter(initial int64) *BalanceMeter {
	return &BalanceMeter{authoritative: initial}
}

// Balance returns the client-visible balance: authoritative minus pending
// optimistic decrements.
func (m *BalanceMeter) Balance() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authoritative - m.predicted
}

// TrySpend applies an optimistic decrement for one message send. It returns
// false when the predicted balance cannot cover the cost, in which case the
// send must be blocked client-side without contacting the pipeline.
func (m *BalanceMeter) TrySpend(cost int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.authoritative-m.predicted < cost {
		return false
	}
	m.predicted += cost
	return true
}

// Reconcile installs an authoritative balance from the live subscription.
// It unconditionally replaces the predicted state: the optimistic value is a
// prediction, never a source of truth.
func (m *BalanceMeter) Reconcile(balance int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authoritative = balance
	m.predicted = 0
}
