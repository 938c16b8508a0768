package pool

import (
	"fmt"
	"maps"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clmmEngine/internal/position"
	"clmmEngine/internal/rewarder"
	"clmmEngine/internal/tick"
)

type snapshot struct {
	state     State
	ticks     *tick.Index
	positions *position.Ledger
	rewards   rewarder.Manager
	pending   map[uuid.UUID]*receipt
	version   uint64
}

func (p *Pool) snapshot() snapshot {
	return snapshot{
		state:     p.state,
		ticks:     p.ticks.Clone(),
		positions: p.positions.Clone(),
		rewards:   p.rewards.Clone(),
		pending:   maps.Clone(p.pending),
		version:   p.version,
	}
}

func (p *Pool) restore(s snapshot) {
	p.state = s.state
	p.ticks = s.ticks
	p.positions = s.positions
	p.rewards = s.rewards
	p.pending = s.pending
	p.version = s.version
}

// Atomically runs fn as one unit of work. If fn fails, or leaves a receipt
// issued inside the unit unsettled, the pool is restored to its state before
// the call and every receipt issued inside the unit is voided. Custody
// transfers already applied are the caller's to undo.
func (p *Pool) Atomically(fn func(*Pool) error) error {
	snap := p.snapshot()
	err := fn(p)
	if err == nil {
		for id := range p.pending {
			if _, ok := snap.pending[id]; !ok {
				err = fmt.Errorf("receipt %s: %w", id, ErrReceiptNotSettled)
				break
			}
		}
	}
	if err == nil {
		return nil
	}

	for id, r := range p.pending {
		if _, ok := snap.pending[id]; !ok {
			r.settled = true
		}
	}
	for _, r := range snap.pending {
		r.settled = false
	}
	p.restore(snap)
	p.logger.Debug("unit of work rolled back", zap.Error(err))
	return err
}
