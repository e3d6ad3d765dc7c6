package wallet

import (
	"time"

	"github.com/realbarber/rbc-wallet-bfa-go/internal/domain"
)

// BalanceTracker holds the last fetched balance. The authoritative value
// only changes through Set; a successful transfer makes it stale and the
// caller must fetch again instead of decrementing locally.
type BalanceTracker struct {
	balance domain.Balance
	known   bool
	stale   bool
}

// Set records a freshly fetched balance.
func (t *BalanceTracker) Set(b domain.Balance) {
	t.balance = b
	t.known = true
	t.stale = false
}

// Authoritative returns the last fetched amount and whether one exists.
func (t *BalanceTracker) Authoritative() (float64, bool) {
	return t.balance.Amount, t.known
}

// Balance returns the last fetched balance record.
func (t *BalanceTracker) Balance() domain.Balance {
	return t.balance
}

// FetchedAt is when the authoritative value was fetched.
func (t *BalanceTracker) FetchedAt() time.Time {
	return t.balance.FetchedAt
}

// Remaining previews the balance after sending pending. It never goes
// below zero even though such a transfer would be rejected.
func (t *BalanceTracker) Remaining(pending float64) float64 {
	return PreviewBalance(t.balance.Amount, pending)
}

// Invalidate marks the balance stale after a mutating operation.
func (t *BalanceTracker) Invalidate() {
	t.stale = true
}

// Stale reports whether the balance must be re-fetched before it is trusted.
func (t *BalanceTracker) Stale() bool {
	return !t.known || t.stale
}

// PreviewBalance is max(0, balance - pending).
func PreviewBalance(balance, pending float64) float64 {
	if r := balance - pending; r > 0 {
		return r
	}
	return 0
}
