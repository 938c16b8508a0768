package rewarder

import (
	"errors"
	"fmt"
	"slices"

	"lukechampine.com/uint128"

	"clmmEngine/internal/fixedpoint"
	"clmmEngine/internal/tick"
)

// MaxRewarders is the number of concurrent reward streams per pool.
const MaxRewarders = tick.MaxRewarders

var (
	ErrDuplicateRewarder = errors.New("rewarder already exists")
	ErrRewarderLimit     = errors.New("rewarder limit reached")
	ErrRewarderNotFound  = errors.New("rewarder not found")
	ErrInvalidTimestamp  = errors.New("timestamp before last update")
)

// Rewarder is one emission stream.
type Rewarder struct {
	RewardID           string
	EmissionsPerSecond uint128.Uint128
	GrowthGlobal       uint128.Uint128
}

// Paused reports whether the stream is present but not accruing.
func (r Rewarder) Paused() bool {
	return r.EmissionsPerSecond.IsZero()
}

// Manager tracks every reward stream of a pool plus the points accumulator.
type Manager struct {
	Rewarders []Rewarder
	// PointsReleased is the pool-wide total of liquidity-seconds.
	PointsReleased     uint128.Uint128
	PointsGrowthGlobal uint128.Uint128
	LastUpdatedTime    uint64
}

func NewManager(now uint64) Manager {
	return Manager{LastUpdatedTime: now}
}

func (m Manager) Clone() Manager {
	m.Rewarders = slices.Clone(m.Rewarders)
	return m
}

// Settle returns the manager advanced to now for the given active liquidity.
// The receiver is left untouched.
func (m Manager) Settle(liquidity uint128.Uint128, now uint64) (Manager, error) {
	if now < m.LastUpdatedTime {
		return Manager{}, fmt.Errorf("now %d last %d: %w", now, m.LastUpdatedTime, ErrInvalidTimestamp)
	}
	elapsed := now - m.LastUpdatedTime
	next := m.Clone()
	next.LastUpdatedTime = now
	if elapsed == 0 || liquidity.IsZero() {
		return next, nil
	}

	elapsedU := uint128.From64(elapsed)
	for i := range next.Rewarders {
		r := &next.Rewarders[i]
		if r.Paused() {
			continue
		}
		growth, err := fixedpoint.MulDivFloor(elapsedU, r.EmissionsPerSecond, liquidity)
		if err != nil {
			return Manager{}, fmt.Errorf("rewarder %s growth: %w", r.RewardID, err)
		}
		r.GrowthGlobal = fixedpoint.GrowthAdd(r.GrowthGlobal, growth)
	}

	// One point per second per unit of in-range liquidity.
	next.PointsGrowthGlobal = fixedpoint.GrowthAdd(next.PointsGrowthGlobal, elapsedU.Lsh(fixedpoint.Resolution))
	next.PointsReleased = next.PointsReleased.AddWrap(liquidity.MulWrap64(elapsed))
	return next, nil
}

// Add appends a paused stream for rewardID and returns its slot.
func (m *Manager) Add(rewardID string) (int, error) {
	if _, err := m.Index(rewardID); err == nil {
		return 0, fmt.Errorf("reward %s: %w", rewardID, ErrDuplicateRewarder)
	}
	if len(m.Rewarders) >= MaxRewarders {
		return 0, ErrRewarderLimit
	}
	m.Rewarders = append(m.Rewarders, Rewarder{RewardID: rewardID})
	return len(m.Rewarders) - 1, nil
}

// SetEmission changes the rate of an existing stream. Callers settle first.
func (m *Manager) SetEmission(rewardID string, emissionsPerSecond uint128.Uint128) error {
	i, err := m.Index(rewardID)
	if err != nil {
		return err
	}
	m.Rewarders[i].EmissionsPerSecond = emissionsPerSecond
	return nil
}

func (m Manager) Index(rewardID string) (int, error) {
	for i, r := range m.Rewarders {
		if r.RewardID == rewardID {
			return i, nil
		}
	}
	return 0, fmt.Errorf("reward %s: %w", rewardID, ErrRewarderNotFound)
}

// Globals returns the reward growths by slot and the points growth.
func (m Manager) Globals() ([MaxRewarders]uint128.Uint128, uint128.Uint128) {
	var rewards [MaxRewarders]uint128.Uint128
	for i, r := range m.Rewarders {
		rewards[i] = r.GrowthGlobal
	}
	return rewards, m.PointsGrowthGlobal
}
