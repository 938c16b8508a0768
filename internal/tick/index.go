package tick

import (
	"fmt"
	"slices"
	"sort"

	"lukechampine.com/uint128"

	"clmmEngine/internal/fixedpoint"
)

// Index is a sparse ordered map of initialized ticks. Keys are kept sorted so
// directional searches are a binary search.
type Index struct {
	spacing      int32
	maxLiquidity uint128.Uint128
	keys         []int32
	ticks        map[int32]Tick
}

func NewIndex(spacing int32) (*Index, error) {
	if spacing <= 0 {
		return nil, ErrInvalidSpacing
	}
	return &Index{
		spacing:      spacing,
		maxLiquidity: MaxLiquidityPerTick(spacing),
		ticks:        make(map[int32]Tick),
	}, nil
}

func (ix *Index) Spacing() int32                { return ix.spacing }
func (ix *Index) MaxLiquidity() uint128.Uint128 { return ix.maxLiquidity }
func (ix *Index) Len() int                      { return len(ix.keys) }

// Get returns the tick at i, or an uninitialized tick with Index set.
func (ix *Index) Get(i int32) (Tick, bool) {
	t, ok := ix.ticks[i]
	if !ok {
		return Tick{Index: i}, false
	}
	return t, true
}

// Preview returns the entry for i after a liquidity delta without touching
// the index. Commit the result with Put.
func (ix *Index) Preview(i int32, delta fixedpoint.I128, isUpper bool, globals Growths, currentTick int32) (Tick, error) {
	if i%ix.spacing != 0 {
		return Tick{}, fmt.Errorf("tick %d spacing %d: %w", i, ix.spacing, ErrTickNotAligned)
	}
	if i < fixedpoint.MinTick || i > fixedpoint.MaxTick {
		return Tick{}, fmt.Errorf("tick %d: %w", i, fixedpoint.ErrTickOutOfBounds)
	}
	current, _ := ix.Get(i)
	return current.apply(delta, isUpper, globals, currentTick, ix.maxLiquidity)
}

// Put stores t, removing it when its gross liquidity is zero.
func (ix *Index) Put(t Tick) {
	if t.LiquidityGross.IsZero() {
		ix.Delete(t.Index)
		return
	}
	if _, ok := ix.ticks[t.Index]; !ok {
		pos := sort.Search(len(ix.keys), func(j int) bool { return ix.keys[j] >= t.Index })
		ix.keys = slices.Insert(ix.keys, pos, t.Index)
	}
	ix.ticks[t.Index] = t
}

func (ix *Index) Delete(i int32) {
	if _, ok := ix.ticks[i]; !ok {
		return
	}
	delete(ix.ticks, i)
	pos := sort.Search(len(ix.keys), func(j int) bool { return ix.keys[j] >= i })
	ix.keys = slices.Delete(ix.keys, pos, pos+1)
}

// NextInitialized returns the largest initialized tick <= t when lte is set,
// else the smallest initialized tick > t. When none exists it returns the
// global bound in that direction and false.
func (ix *Index) NextInitialized(t int32, lte bool) (int32, bool) {
	pos := sort.Search(len(ix.keys), func(j int) bool { return ix.keys[j] > t })
	if lte {
		if pos == 0 {
			return fixedpoint.MinTick, false
		}
		return ix.keys[pos-1], true
	}
	if pos == len(ix.keys) {
		return fixedpoint.MaxTick, false
	}
	return ix.keys[pos], true
}

// Cross flips the growth-outside fields of tick i and returns its net
// liquidity. Crossing an uninitialized tick is a no-op.
func (ix *Index) Cross(i int32, globals Growths) fixedpoint.I128 {
	t, ok := ix.ticks[i]
	if !ok {
		return fixedpoint.I128{}
	}
	t = t.cross(globals)
	ix.ticks[i] = t
	return t.LiquidityNet
}

// GrowthInside looks up both boundaries and applies the package GrowthInside.
func (ix *Index) GrowthInside(lower, upper, currentTick int32, globals Growths) Growths {
	lowerTick, _ := ix.Get(lower)
	upperTick, _ := ix.Get(upper)
	return GrowthInside(lowerTick, upperTick, currentTick, globals)
}

// Page returns up to limit ticks with Index >= from, in ascending order, and
// the cursor of the next page when more remain.
func (ix *Index) Page(from int32, limit int) ([]Tick, int32, bool) {
	if limit <= 0 {
		return nil, 0, false
	}
	pos := sort.Search(len(ix.keys), func(j int) bool { return ix.keys[j] >= from })
	end := pos + limit
	if end > len(ix.keys) {
		end = len(ix.keys)
	}

	page := make([]Tick, 0, end-pos)
	for _, key := range ix.keys[pos:end] {
		page = append(page, ix.ticks[key])
	}
	if end < len(ix.keys) {
		return page, ix.keys[end], true
	}
	return page, 0, false
}

// Clone returns a deep copy.
func (ix *Index) Clone() *Index {
	ticks := make(map[int32]Tick, len(ix.ticks))
	for k, v := range ix.ticks {
		ticks[k] = v
	}
	return &Index{
		spacing:      ix.spacing,
		maxLiquidity: ix.maxLiquidity,
		keys:         slices.Clone(ix.keys),
		ticks:        ticks,
	}
}

// NetSum returns the sum of liquidity_net over every initialized tick.
func (ix *Index) NetSum() (fixedpoint.I128, error) {
	var sum fixedpoint.I128
	for _, key := range ix.keys {
		var err error
		sum, err = sum.Add(ix.ticks[key].LiquidityNet)
		if err != nil {
			return fixedpoint.I128{}, err
		}
	}
	return sum, nil
}

// ActiveLiquidity sums liquidity_net over ticks <= currentTick.
func (ix *Index) ActiveLiquidity(currentTick int32) (uint128.Uint128, error) {
	var sum fixedpoint.I128
	for _, key := range ix.keys {
		if key > currentTick {
			break
		}
		var err error
		sum, err = sum.Add(ix.ticks[key].LiquidityNet)
		if err != nil {
			return uint128.Zero, err
		}
	}
	if sum.IsNeg() {
		return uint128.Zero, fixedpoint.ErrUnderflow
	}
	return sum.Abs(), nil
}
