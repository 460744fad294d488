package domain

import "context"

// MarketDataProvider is the collaborator boundary the engine consumes. The
// data layer (exchange REST client, optionally wrapped by a cache) implements
// it; the engine never talks to an exchange directly. Implementations must
// tolerate concurrent calls.
type MarketDataProvider interface {
	// FundingRates returns the current funding-rate universe, keyed by
	// symbol. Rates are signed fractions per funding period.
	FundingRates(ctx context.Context) (map[string]float64, error)

	// OrderBooks returns the spot and swap books for a symbol. Missing or
	// partial books are representable (empty sides) and are handled as
	// skips by the caller, not as errors.
	OrderBooks(ctx context.Context, symbol string) (MarketBooks, error)

	// TakerFee returns the taker fee fraction for the symbol's spot or swap
	// instrument.
	TakerFee(ctx context.Context, symbol string, kind MarketKind) (float64, error)

	// EarnRates returns the current lending (simple earn) APR per base
	// asset. Missing assets default to 0.
	EarnRates(ctx context.Context) (map[string]float64, error)

	// TotalEquity returns the account's total equity in quote currency.
	// Used once per scan cycle to derive capital per trade.
	TotalEquity(ctx context.Context) (float64, error)
}

// BorrowRateProvider supplies the annualized borrowing cost for selling a
// base asset short on the spot leg. It is a capability, not a hard
// dependency: the engine defaults to ZeroBorrowRate until a real source is
// wired in.
type BorrowRateProvider interface {
	BorrowRate(ctx context.Context, baseAsset string) (float64, error)
}

// ZeroBorrowRate is the default BorrowRateProvider: borrowing is free until
// a real rate source exists.
type ZeroBorrowRate struct{}

// BorrowRate always returns 0.
func (ZeroBorrowRate) BorrowRate(context.Context, string) (float64, error) {
	return 0, nil
}
