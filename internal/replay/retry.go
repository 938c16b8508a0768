package replay

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
)

func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, logger *zap.Logger, what string, fn func() error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(uint(maxRetries)+1),
		retry.Delay(baseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn(what+" failed", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
}
