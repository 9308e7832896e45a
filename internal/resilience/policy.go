package resilience

import "context"

// Policy is the retry and breaker pair applied to every call to one service.
type Policy struct {
	Service string
	Retry   RetryConfig
	Breaker *CircuitBreaker
}

// Call runs fn under p. Each attempt passes through the breaker, and a
// rejection by an open circuit is returned without further retries.
func Call[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg := p.Retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = RetryLogger(p.Service, op)
	}
	return DoVal(ctx, cfg, func(ctx context.Context) (T, error) {
		if p.Breaker == nil {
			return fn(ctx)
		}
		return ExecuteVal(ctx, p.Breaker, fn)
	})
}
