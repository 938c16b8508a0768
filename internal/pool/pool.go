package pool

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"lukechampine.com/uint128"

	"clmmEngine/internal/custody"
	"clmmEngine/internal/fixedpoint"
	"clmmEngine/internal/position"
	"clmmEngine/internal/rewarder"
	"clmmEngine/internal/tick"
)

const (
	// MaxFeeRate caps the swap fee at 20% in parts per million.
	MaxFeeRate uint64 = 200_000
	// ShareDenominator scales protocol and partner fee shares (basis points).
	ShareDenominator uint64 = 10_000
	// MaxProtocolFeeRate caps the protocol share of each swap fee.
	MaxProtocolFeeRate uint64 = 3_000
	// MaxSwapSteps bounds the number of steps a single swap may take.
	MaxSwapSteps = 4096
)

// Clock supplies the current unix time in seconds.
type Clock interface {
	Now() uint64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() uint64 { return uint64(time.Now().Unix()) }

// Custody receives the coin movements the engine instructs. Apply must either
// perform every transfer or none.
type Custody interface {
	Apply(transfers ...custody.Transfer) error
}

type nopCustody struct{}

func (nopCustody) Apply(...custody.Transfer) error { return nil }

// Config describes a pool at creation.
type Config struct {
	ID               string
	CoinA            string
	CoinB            string
	DecimalsA        uint8
	DecimalsB        uint8
	TickSpacing      int32
	FeeRate          uint64
	ProtocolFeeRate  uint64
	InitialSqrtPrice uint128.Uint128
}

func (c Config) validate() error {
	if strings.TrimSpace(c.CoinA) == "" || strings.TrimSpace(c.CoinB) == "" || c.CoinA == c.CoinB {
		return fmt.Errorf("coins %q/%q: %w", c.CoinA, c.CoinB, ErrInvalidConfig)
	}
	if c.TickSpacing <= 0 {
		return fmt.Errorf("tick spacing %d: %w", c.TickSpacing, ErrInvalidConfig)
	}
	if c.FeeRate > MaxFeeRate {
		return fmt.Errorf("fee rate %d: %w", c.FeeRate, ErrInvalidFeeRate)
	}
	if c.ProtocolFeeRate > MaxProtocolFeeRate {
		return fmt.Errorf("protocol fee rate %d: %w", c.ProtocolFeeRate, ErrInvalidFeeRate)
	}
	if !fixedpoint.IsValidSqrtPrice(c.InitialSqrtPrice) {
		return fmt.Errorf("initial sqrt price %s: %w", c.InitialSqrtPrice, fixedpoint.ErrSqrtPriceOutOfBounds)
	}
	return nil
}

// Deps are the collaborators a pool consumes. Zero values get defaults.
type Deps struct {
	Clock   Clock
	IDs     position.IDSource
	Custody Custody
	Logger  *zap.Logger
}

// State is the pool-level scalar state.
type State struct {
	SqrtPrice        uint128.Uint128
	TickIndex        int32
	Liquidity        uint128.Uint128
	FeeRate          uint64
	ProtocolFeeRate  uint64
	FeeGrowthGlobalA uint128.Uint128
	FeeGrowthGlobalB uint128.Uint128
	ProtocolFeeOwedA uint64
	ProtocolFeeOwedB uint64
	Paused           bool
}

// Pool owns its tick index, position ledger and rewarder manager. It is not
// safe for concurrent use; hosts serialize calls per pool.
type Pool struct {
	cfg       Config
	state     State
	ticks     *tick.Index
	positions *position.Ledger
	rewards   rewarder.Manager
	pending   map[uuid.UUID]*receipt
	version   uint64
	maxSteps  int

	clock   Clock
	ids     position.IDSource
	custody Custody
	logger  *zap.Logger
}

func New(cfg Config, deps Deps) (*Pool, error) {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	ticks, err := tick.NewIndex(cfg.TickSpacing)
	if err != nil {
		return nil, err
	}
	current, err := fixedpoint.SqrtPriceToTick(cfg.InitialSqrtPrice)
	if err != nil {
		return nil, err
	}

	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.IDs == nil {
		deps.IDs = position.NewKeccakIDs(cfg.ID)
	}
	if deps.Custody == nil {
		deps.Custody = nopCustody{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	p := &Pool{
		cfg: cfg,
		state: State{
			SqrtPrice:       cfg.InitialSqrtPrice,
			TickIndex:       current,
			FeeRate:         cfg.FeeRate,
			ProtocolFeeRate: cfg.ProtocolFeeRate,
		},
		ticks:     ticks,
		positions: position.NewLedger(),
		rewards:   rewarder.NewManager(deps.Clock.Now()),
		pending:   make(map[uuid.UUID]*receipt),
		maxSteps:  MaxSwapSteps,
		clock:     deps.Clock,
		ids:       deps.IDs,
		custody:   deps.Custody,
		logger:    deps.Logger.With(zap.String("pool", cfg.ID)),
	}
	p.logger.Info("pool created",
		zap.String("coin_a", cfg.CoinA),
		zap.String("coin_b", cfg.CoinB),
		zap.Int32("tick_spacing", cfg.TickSpacing),
		zap.Uint64("fee_rate", cfg.FeeRate),
		zap.Int32("tick", current),
	)
	return p, nil
}

// settleRewards advances a copy of the rewarder manager to now.
func (p *Pool) settleRewards() (rewarder.Manager, error) {
	return p.rewards.Settle(p.state.Liquidity, p.clock.Now())
}

func (p *Pool) globals(rm rewarder.Manager) tick.Growths {
	rewards, points := rm.Globals()
	return tick.Growths{
		FeeA:    p.state.FeeGrowthGlobalA,
		FeeB:    p.state.FeeGrowthGlobalB,
		Rewards: rewards,
		Points:  points,
	}
}

func (p *Pool) inRange(lower, upper int32) bool {
	return lower <= p.state.TickIndex && p.state.TickIndex < upper
}

func (p *Pool) checkRange(lower, upper int32) error {
	spacing := p.cfg.TickSpacing
	switch {
	case lower >= upper:
		return fmt.Errorf("lower %d upper %d: %w", lower, upper, ErrInvalidRange)
	case lower < fixedpoint.MinTick || upper > fixedpoint.MaxTick:
		return fmt.Errorf("range [%d, %d) outside bounds: %w", lower, upper, ErrInvalidRange)
	case lower%spacing != 0 || upper%spacing != 0:
		return fmt.Errorf("range [%d, %d) spacing %d: %w", lower, upper, spacing, ErrInvalidRange)
	}
	return nil
}

func (p *Pool) commit() {
	p.version++
}
