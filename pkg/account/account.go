// Package account implements the credentials table and the per-user
// account registry described in spec section 3: a username→balance
// mapping with overflow-safe adjustment, created lazily on first
// successful authentication and held for the process lifetime.
package account

import "sync"

// Account is a single user's balance, identified by username. Mutated by
// Adjust (UpdateBalance and table payouts) and read by Balance
// (GetBalance). Internal lock serializes read-modify-write, including the
// overflow check, so P3's "never partial" clamp holds under concurrent
// callers.
type Account struct {
	Username string

	mu      sync.Mutex
	balance uint32
}

// New creates an account with a zero balance, per spec section 3 and the
// auth happy-path scenario in spec section 8.
func New(username string) *Account {
	return &Account{Username: username}
}

// Balance returns the current balance.
func (a *Account) Balance() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// Adjust applies delta to the balance. If the result would fall outside
// [0, 2^32-1], the adjustment is rejected entirely and the balance is left
// unchanged (spec section 3's overflow invariant, property P3). Returns
// the resulting balance and whether the adjustment was applied.
func (a *Account) Adjust(delta int32) (balance uint32, applied bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sum := int64(a.balance) + int64(delta)
	if sum < 0 || sum > int64(^uint32(0)) {
		return a.balance, false
	}
	a.balance = uint32(sum)
	return a.balance, true
}

// Debit attempts to subtract amount from the balance, used for bet
// collection (spec section 4.4(b)). Fails without mutating the balance if
// amount exceeds the current balance.
func (a *Account) Debit(amount uint32) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if uint64(amount) > uint64(a.balance) {
		return false
	}
	a.balance -= amount
	return true
}

// Credit adds amount to the balance, used for settlement payouts (spec
// section 4.4(f)). Subject to the same silent-rejection overflow rule as
// Adjust (spec section 3).
func (a *Account) Credit(amount uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	sum := int64(a.balance) + int64(amount)
	if sum > int64(^uint32(0)) {
		return
	}
	a.balance = uint32(sum)
}
