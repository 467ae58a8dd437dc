// Package ratelimit holds the two request-rate controls of an export run.
//
// Throttle is the adaptive concurrency ceiling: every HTTP 429 halves it
// (never below three workers) when adaptive throttling is on, and nothing
// raises it again until the next run. SlidingWindow is an optional global
// requests-per-minute pacer applied before every HTTP attempt.
package ratelimit
