package custody

import (
	"errors"
	"fmt"
	"maps"
	"sync"
)

// Direction says which way a transfer moves coins relative to the pool vault.
type Direction uint8

const (
	// In moves coins from the caller into the vault.
	In Direction = iota
	// Out moves coins from the vault to the caller.
	Out
)

func (d Direction) String() string {
	if d == In {
		return "in"
	}
	return "out"
}

// Transfer is one instruction issued by the engine.
type Transfer struct {
	Coin      string
	Amount    uint64
	Direction Direction
}

var ErrInsufficientBalance = errors.New("insufficient balance")

// Ledger is an in-memory vault plus a single caller wallet. Apply is
// all-or-nothing across the transfers it receives.
type Ledger struct {
	mu     sync.Mutex
	vault  map[string]uint64
	wallet map[string]uint64
}

func NewLedger() *Ledger {
	return &Ledger{
		vault:  make(map[string]uint64),
		wallet: make(map[string]uint64),
	}
}

// Fund credits the caller wallet.
func (l *Ledger) Fund(coin string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := l.wallet[coin] + amount
	if next < amount {
		return fmt.Errorf("fund %s: balance overflow", coin)
	}
	l.wallet[coin] = next
	return nil
}

// Apply validates every transfer against current balances, then moves them.
func (l *Ledger) Apply(transfers ...Transfer) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	vault := maps.Clone(l.vault)
	wallet := maps.Clone(l.wallet)
	for _, tr := range transfers {
		if tr.Amount == 0 {
			continue
		}
		from, to := wallet, vault
		if tr.Direction == Out {
			from, to = vault, wallet
		}
		if from[tr.Coin] < tr.Amount {
			return fmt.Errorf("%s %d %s: %w", tr.Direction, tr.Amount, tr.Coin, ErrInsufficientBalance)
		}
		if to[tr.Coin]+tr.Amount < to[tr.Coin] {
			return fmt.Errorf("%s %d %s: balance overflow", tr.Direction, tr.Amount, tr.Coin)
		}
		from[tr.Coin] -= tr.Amount
		to[tr.Coin] += tr.Amount
	}

	l.vault = vault
	l.wallet = wallet
	return nil
}

func (l *Ledger) Vault(coin string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.vault[coin]
}

func (l *Ledger) Wallet(coin string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.wallet[coin]
}

// Snapshot captures both balance sheets so a failed unit of work can be
// rolled back with Restore.
type Snapshot struct {
	vault  map[string]uint64
	wallet map[string]uint64
}

func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{vault: maps.Clone(l.vault), wallet: maps.Clone(l.wallet)}
}

func (l *Ledger) Restore(s Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.vault = maps.Clone(s.vault)
	l.wallet = maps.Clone(s.wallet)
}

// Balances returns a copy of the vault balances.
func (l *Ledger) Balances() map[string]uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return maps.Clone(l.vault)
}
