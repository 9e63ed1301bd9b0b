// internal/services/treasury.go
package services

import (
	"sync"

	"github.com/relicense/ledger-backend/internal/models"
)

// Treasury moves settlement funds to the parties of a purchase. Drivers must
// be safe to call from inside a store transaction: a returned error aborts
// the whole purchase, so a driver that cannot roll its own transfers back
// should record intents and execute them out of band.
type Treasury interface {
	// Transfer credits amount to the account.
	Transfer(to models.AccountID, amount uint64) error
	// TransferToPlatform credits the platform fee account.
	TransferToPlatform(amount uint64) error
}

// LocalTreasury records transfers in memory. It backs development mode and
// tests; FailAfter lets tests inject a transfer failure mid-settlement.
type LocalTreasury struct {
	mu        sync.Mutex
	balances  map[models.AccountID]uint64
	platform  uint64
	calls     int
	FailAfter int // fail on the (FailAfter+1)th transfer; negative disables
}

func NewLocalTreasury() *LocalTreasury {
	return &LocalTreasury{
		balances:  make(map[models.AccountID]uint64),
		FailAfter: -1,
	}
}

func (t *LocalTreasury) Transfer(to models.AccountID, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.FailAfter >= 0 && t.calls >= t.FailAfter {
		return models.ErrTransferFailed
	}
	t.calls++
	t.balances[to] += amount
	return nil
}

func (t *LocalTreasury) TransferToPlatform(amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.FailAfter >= 0 && t.calls >= t.FailAfter {
		return models.ErrTransferFailed
	}
	t.calls++
	t.platform += amount
	return nil
}

// Balance reports the credited total for an account.
func (t *LocalTreasury) Balance(account models.AccountID) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[account]
}

// PlatformBalance reports the accumulated platform fees.
func (t *LocalTreasury) PlatformBalance() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.platform
}
