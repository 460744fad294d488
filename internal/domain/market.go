// Package domain defines the core types shared across the funding-rate
// arbitrage engine: order books, market snapshots, fill results, decisions,
// and the interfaces implemented by the data, cache, storage, and blob layers.
package domain

import (
	"strings"
	"time"
)

// Direction is the side of the delta-neutral position on the swap leg.
type Direction string

const (
	// DirectionShort shorts the perpetual swap and buys spot. Used when the
	// funding rate is positive: shorts collect funding.
	DirectionShort Direction = "SHORT"
	// DirectionLong goes long the perpetual swap and sells spot. Used when
	// the funding rate is negative: longs collect funding.
	DirectionLong Direction = "LONG"
)

// MarketKind distinguishes the two instrument types of a symbol.
type MarketKind string

const (
	MarketSpot MarketKind = "spot"
	MarketSwap MarketKind = "swap"
)

// PriceLevel is a single depth tier of an order book.
type PriceLevel struct {
	Price    float64
	Quantity float64
}

// Notional returns price*quantity, the quote-currency value of the level.
func (l PriceLevel) Notional() float64 {
	return l.Price * l.Quantity
}

// OrderBookSide is one side of an order book, ordered best to worst price
// (ascending for asks, descending for bids). The ordering comes from the
// upstream exchange and must not be re-sorted.
type OrderBookSide []PriceLevel

// Best returns the top-of-book price, or 0 for an empty side.
func (s OrderBookSide) Best() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[0].Price
}

// TotalNotional returns the cumulative price*quantity across all levels.
func (s OrderBookSide) TotalNotional() float64 {
	var total float64
	for _, l := range s {
		total += l.Notional()
	}
	return total
}

// OrderBook holds both sides of one instrument's book.
type OrderBook struct {
	Asks OrderBookSide // ascending price
	Bids OrderBookSide // descending price
}

// Empty reports whether either side is missing.
func (b OrderBook) Empty() bool {
	return len(b.Asks) == 0 || len(b.Bids) == 0
}

// MarketBooks bundles the spot and swap books of a symbol for one evaluation.
// It is constructed fresh per evaluation cycle and never mutated.
type MarketBooks struct {
	Symbol    string
	Spot      OrderBook
	Swap      OrderBook
	Timestamp time.Time
}

// Complete reports whether all four sides carry at least one level.
func (m MarketBooks) Complete() bool {
	return !m.Spot.Empty() && !m.Swap.Empty()
}

// FillResult is the output of walking one book side with a capital budget.
type FillResult struct {
	// AveragePrice is the volume-weighted average fill price.
	AveragePrice float64
	// Slippage is |avg - best| / best, never negative. Zero only when the
	// whole budget fills at the top level.
	Slippage float64
}

// FundingRate is one entry of the funding-rate universe.
type FundingRate struct {
	Symbol    string
	Rate      float64 // signed fraction per funding period
	Timestamp time.Time
}

// BaseAsset extracts the base currency from a symbol like "BTC/USDT" or
// "BTC-USDT-SWAP". Returns the symbol unchanged when no separator is found.
func BaseAsset(symbol string) string {
	if i := strings.IndexAny(symbol, "/-"); i > 0 {
		return symbol[:i]
	}
	return symbol
}
