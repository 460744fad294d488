package domain

import "errors"

var (
	// ErrInsufficientLiquidity means the book side's cumulative notional is
	// below the requested capital. Non-fatal, per-leg.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	// ErrDataGap means an order book or the funding universe was missing or
	// partial. Non-fatal, the affected symbol is skipped.
	ErrDataGap = errors.New("missing or partial market data")
	// ErrSlippageExceeded means a leg's slippage was above the configured
	// ceiling. A policy rejection, not an exceptional condition.
	ErrSlippageExceeded = errors.New("slippage above allowed maximum")
	// ErrBelowThreshold means the net APR did not clear the configured
	// minimum. The expected outcome of most evaluations.
	ErrBelowThreshold = errors.New("net return below threshold")
	// ErrInvalidInput means a non-finite or out-of-domain numeric input
	// reached the cost model. Indicates a caller or config defect, surfaced
	// distinctly from market-condition skips.
	ErrInvalidInput = errors.New("invalid numeric input")

	ErrNotFound     = errors.New("not found")
	ErrLockHeld     = errors.New("lock already held")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnauthorized = errors.New("unauthorized")
	ErrWSDisconnect = errors.New("websocket disconnected")
)
