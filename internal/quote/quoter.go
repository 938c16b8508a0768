package quote

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"clmmEngine/internal/pool"
)

// Source is the read side of a pool that quoting needs.
type Source interface {
	ID() string
	Version() uint64
	SimulateSwap(params pool.SwapParams) (pool.CalculatedSwapResult, error)
}

// Quote pairs a request with its simulated outcome.
type Quote struct {
	Params pool.SwapParams
	Result pool.CalculatedSwapResult
	Cached bool
	Err    error
}

type cacheKey struct {
	pool    string
	version uint64
	params  pool.SwapParams
}

var ErrNoQuote = errors.New("no successful quote")

// Quoter simulates many swaps in parallel. Results are cached per pool
// version, so a mutation invalidates every earlier entry. Callers must not
// mutate a pool while a batch against it is running.
type Quoter struct {
	workers *ants.Pool
	cache   *lru.Cache[cacheKey, pool.CalculatedSwapResult]
	logger  *zap.Logger
}

func New(workers, cacheSize int, logger *zap.Logger) (*Quoter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	wp, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("worker pool: %w", err)
	}
	cache, err := lru.New[cacheKey, pool.CalculatedSwapResult](cacheSize)
	if err != nil {
		wp.Release()
		return nil, fmt.Errorf("quote cache: %w", err)
	}
	return &Quoter{workers: wp, cache: cache, logger: logger}, nil
}

// Close releases the worker pool.
func (q *Quoter) Close() {
	q.workers.Release()
}

// Quote simulates one swap, consulting the cache first.
func (q *Quoter) Quote(src Source, params pool.SwapParams) Quote {
	key := cacheKey{pool: src.ID(), version: src.Version(), params: params}
	if res, ok := q.cache.Get(key); ok {
		return Quote{Params: params, Result: res, Cached: true}
	}
	res, err := src.SimulateSwap(params)
	if err != nil {
		return Quote{Params: params, Err: err}
	}
	q.cache.Add(key, res)
	return Quote{Params: params, Result: res}
}

// Batch quotes every request concurrently and returns results in request
// order. Requests not yet started when ctx is done report ctx.Err().
func (q *Quoter) Batch(ctx context.Context, src Source, requests []pool.SwapParams) ([]Quote, error) {
	out := make([]Quote, len(requests))
	var wg sync.WaitGroup
	for i, params := range requests {
		i, params := i, params
		wg.Add(1)
		err := q.workers.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				out[i] = Quote{Params: params, Err: err}
				return
			}
			out[i] = q.Quote(src, params)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("submit quote %d: %w", i, err)
		}
	}
	wg.Wait()

	failed := 0
	for _, qt := range out {
		if qt.Err != nil {
			failed++
		}
	}
	q.logger.Debug("quote batch",
		zap.String("pool", src.ID()),
		zap.Uint64("version", src.Version()),
		zap.Int("requests", len(requests)),
		zap.Int("failed", failed),
		zap.Int("cached", q.cache.Len()),
	)
	return out, nil
}

// Best returns the quote with the most output for exact-input requests, or
// the least input for exact-output requests.
func Best(quotes []Quote) (Quote, error) {
	var best Quote
	found := false
	for _, qt := range quotes {
		if qt.Err != nil {
			continue
		}
		if !found || better(qt, best) {
			best, found = qt, true
		}
	}
	if !found {
		return Quote{}, ErrNoQuote
	}
	return best, nil
}

func better(a, b Quote) bool {
	if a.Params.ByAmountIn {
		return a.Result.AmountOut > b.Result.AmountOut
	}
	return a.Result.AmountIn+a.Result.FeeAmount < b.Result.AmountIn+b.Result.FeeAmount
}
