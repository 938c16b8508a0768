package position

import (
	"bytes"
	"fmt"
	"slices"

	"clmmEngine/internal/fixedpoint"
	"clmmEngine/internal/tick"
)

// Ledger holds every open position of a pool.
type Ledger struct {
	positions map[ID]Position
}

func NewLedger() *Ledger {
	return &Ledger{positions: make(map[ID]Position)}
}

func (l *Ledger) Len() int { return len(l.positions) }

// Open registers an empty position over [lower, upper). Range validation is
// the pool's job.
func (l *Ledger) Open(id ID, lower, upper int32) (Position, error) {
	if _, ok := l.positions[id]; ok {
		return Position{}, fmt.Errorf("position %s: %w", id.Hex(), ErrPositionExists)
	}
	p := Position{ID: id, TickLower: lower, TickUpper: upper}
	l.positions[id] = p
	return p, nil
}

func (l *Ledger) Get(id ID) (Position, error) {
	p, ok := l.positions[id]
	if !ok {
		return Position{}, fmt.Errorf("position %s: %w", id.Hex(), ErrPositionNotFound)
	}
	return p, nil
}

// Put stores an updated position value.
func (l *Ledger) Put(p Position) {
	l.positions[p.ID] = p
}

// Close removes an empty position.
func (l *Ledger) Close(id ID) error {
	p, err := l.Get(id)
	if err != nil {
		return err
	}
	if !p.IsEmpty() {
		return fmt.Errorf("position %s: %w", id.Hex(), ErrPositionNotEmpty)
	}
	delete(l.positions, id)
	return nil
}

// UpdateLiquidity returns the position accrued at its old liquidity with
// delta applied. The ledger is not modified; commit the result with Put.
func (l *Ledger) UpdateLiquidity(id ID, delta fixedpoint.I128, inside tick.Growths) (Position, error) {
	p, err := l.Get(id)
	if err != nil {
		return Position{}, err
	}
	return p.UpdateLiquidity(delta, inside)
}

// Settle returns the position with fees, rewards and points accrued up to
// inside. The ledger is not modified; commit the result with Put.
func (l *Ledger) Settle(id ID, inside tick.Growths) (Position, error) {
	p, err := l.Get(id)
	if err != nil {
		return Position{}, err
	}
	return p.Accrue(inside)
}

// Page returns up to limit positions with id >= cursor ordered by id, and
// the next cursor when more remain.
func (l *Ledger) Page(cursor ID, limit int) ([]Position, ID, bool) {
	if limit <= 0 {
		return nil, ID{}, false
	}
	ids := l.sortedIDs()
	start, _ := slices.BinarySearchFunc(ids, cursor, func(a, b ID) int { return bytes.Compare(a[:], b[:]) })
	end := start + limit
	if end > len(ids) {
		end = len(ids)
	}

	page := make([]Position, 0, end-start)
	for _, id := range ids[start:end] {
		page = append(page, l.positions[id])
	}
	if end < len(ids) {
		return page, ids[end], true
	}
	return page, ID{}, false
}

func (l *Ledger) sortedIDs() []ID {
	ids := make([]ID, 0, len(l.positions))
	for id := range l.positions {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b ID) int { return bytes.Compare(a[:], b[:]) })
	return ids
}

func (l *Ledger) Clone() *Ledger {
	positions := make(map[ID]Position, len(l.positions))
	for k, v := range l.positions {
		positions[k] = v
	}
	return &Ledger{positions: positions}
}
