// Package retry runs operations with bounded attempts and backoff.
//
//	cfg := retry.DefaultConfig(2) // 3 attempts: waits 500ms then 1.5s
//	cfg.Backoff = retry.Stretched(cfg.Backoff, throttle.BackoffFactor)
//	data, err := retry.DoWithResult(ctx, fetch, cfg)
//
// Delays carry no jitter unless an ExponentialBackoff sets JitterFactor.
package retry
