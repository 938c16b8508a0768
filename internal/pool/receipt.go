package pool

import (
	"fmt"

	"github.com/google/uuid"
	"lukechampine.com/uint128"

	"clmmEngine/internal/custody"
	"clmmEngine/internal/position"
)

// receipt is the single-use handle shared by both receipt kinds.
type receipt struct {
	id      uuid.UUID
	poolID  string
	settled bool
}

// ID returns the receipt's unique id.
func (r *receipt) ID() uuid.UUID { return r.id }

// Settled reports whether the receipt has been consumed or voided.
func (r *receipt) Settled() bool { return r.settled }

// FlashSwapReceipt records what a flash swap borrower still owes.
type FlashSwapReceipt struct {
	receipt
	AToB         bool
	PayAmount    uint64
	RefFeeAmount uint64
}

// PayAmounts returns the exact (a, b) repayment the receipt expects.
func (r *FlashSwapReceipt) PayAmounts() (uint64, uint64) {
	if r.AToB {
		return r.PayAmount, 0
	}
	return 0, r.PayAmount
}

// AddLiquidityReceipt records the coins owed for liquidity already credited.
type AddLiquidityReceipt struct {
	receipt
	PositionID position.ID
	Liquidity  uint128.Uint128
	AmountA    uint64
	AmountB    uint64
}

func (p *Pool) issue() receipt {
	return receipt{id: uuid.New(), poolID: p.cfg.ID}
}

func (p *Pool) track(r *receipt) {
	p.pending[r.id] = r
}

func (p *Pool) checkReceipt(r *receipt) error {
	if r == nil || r.poolID != p.cfg.ID {
		return ErrReceiptMismatch
	}
	if r.settled {
		return fmt.Errorf("receipt %s: %w", r.id, ErrReceiptAlreadySettled)
	}
	if tracked, ok := p.pending[r.id]; !ok || tracked != r {
		return fmt.Errorf("receipt %s: %w", r.id, ErrReceiptMismatch)
	}
	return nil
}

func (p *Pool) consume(r *receipt) {
	r.settled = true
	delete(p.pending, r.id)
}

// RepayFlashSwap settles a flash swap. The payment must match the receipt
// exactly.
func (p *Pool) RepayFlashSwap(r *FlashSwapReceipt, paidA, paidB uint64) error {
	if r == nil {
		return ErrReceiptMismatch
	}
	if err := p.checkReceipt(&r.receipt); err != nil {
		return err
	}
	wantA, wantB := r.PayAmounts()
	if paidA != wantA || paidB != wantB {
		return fmt.Errorf("paid (%d, %d) want (%d, %d): %w", paidA, paidB, wantA, wantB, ErrPaymentMismatch)
	}
	if err := p.custody.Apply(
		custody.Transfer{Coin: p.cfg.CoinA, Amount: paidA, Direction: custody.In},
		custody.Transfer{Coin: p.cfg.CoinB, Amount: paidB, Direction: custody.In},
	); err != nil {
		return fmt.Errorf("repay flash swap: %w", err)
	}
	p.consume(&r.receipt)
	p.commit()
	return nil
}

// RepayAddLiquidity settles the coins due for an add-liquidity call.
func (p *Pool) RepayAddLiquidity(r *AddLiquidityReceipt, paidA, paidB uint64) error {
	if r == nil {
		return ErrReceiptMismatch
	}
	if err := p.checkReceipt(&r.receipt); err != nil {
		return err
	}
	if paidA != r.AmountA || paidB != r.AmountB {
		return fmt.Errorf("paid (%d, %d) want (%d, %d): %w", paidA, paidB, r.AmountA, r.AmountB, ErrPaymentMismatch)
	}
	if err := p.custody.Apply(
		custody.Transfer{Coin: p.cfg.CoinA, Amount: paidA, Direction: custody.In},
		custody.Transfer{Coin: p.cfg.CoinB, Amount: paidB, Direction: custody.In},
	); err != nil {
		return fmt.Errorf("repay add liquidity: %w", err)
	}
	p.consume(&r.receipt)
	p.commit()
	return nil
}

// PendingReceipts returns the number of receipts issued and not yet settled.
func (p *Pool) PendingReceipts() int {
	return len(p.pending)
}
