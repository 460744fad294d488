package okx

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

// APIFundingRate is one entry of /api/v5/public/funding-rate.
type APIFundingRate struct {
	InstID      string `json:"instId"`
	FundingRate string `json:"fundingRate"`
	FundingTime string `json:"fundingTime"`
}

// ToDomain converts the API entry to a domain FundingRate. The swap
// instrument ID ("BTC-USDT-SWAP") is normalized to the symbol ("BTC-USDT").
func (r APIFundingRate) ToDomain() (domain.FundingRate, error) {
	rate, err := strconv.ParseFloat(r.FundingRate, 64)
	if err != nil {
		return domain.FundingRate{}, fmt.Errorf("okx: parse funding rate %q: %w", r.FundingRate, err)
	}
	ts := time.Now().UTC()
	if ms, err := strconv.ParseInt(r.FundingTime, 10, 64); err == nil {
		ts = time.UnixMilli(ms).UTC()
	}
	return domain.FundingRate{
		Symbol:    SymbolFromInstID(r.InstID),
		Rate:      rate,
		Timestamp: ts,
	}, nil
}

// APIOrderBook is one entry of /api/v5/market/books. Levels are
// [price, size, liquidated orders, order count] string quadruples; asks are
// ascending, bids descending, both best-first.
type APIOrderBook struct {
	Asks [][]string `json:"asks"`
	Bids [][]string `json:"bids"`
	TS   string     `json:"ts"`
}

// ToDomain converts the raw levels to an ordered domain book, preserving the
// exchange ordering.
func (b APIOrderBook) ToDomain() (domain.OrderBook, error) {
	asks, err := parseLevels(b.Asks)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("okx: asks: %w", err)
	}
	bids, err := parseLevels(b.Bids)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("okx: bids: %w", err)
	}
	return domain.OrderBook{Asks: asks, Bids: bids}, nil
}

// Timestamp returns the book timestamp, or zero time when absent.
func (b APIOrderBook) Timestamp() time.Time {
	if ms, err := strconv.ParseInt(b.TS, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}

func parseLevels(raw [][]string) (domain.OrderBookSide, error) {
	side := make(domain.OrderBookSide, 0, len(raw))
	for _, lvl := range raw {
		if len(lvl) < 2 {
			return nil, fmt.Errorf("level has %d fields, want at least 2", len(lvl))
		}
		price, err := strconv.ParseFloat(lvl[0], 64)
		if err != nil {
			return nil, fmt.Errorf("parse price %q: %w", lvl[0], err)
		}
		qty, err := strconv.ParseFloat(lvl[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse quantity %q: %w", lvl[1], err)
		}
		if price <= 0 || qty <= 0 {
			continue
		}
		side = append(side, domain.PriceLevel{Price: price, Quantity: qty})
	}
	return side, nil
}

// APITradeFee is one entry of /api/v5/account/trade-fee. OKX reports fees as
// negative fractions (a charge); rebates are positive.
type APITradeFee struct {
	Taker  string `json:"taker"`
	TakerU string `json:"takerU"` // USDT-margined contracts
}

// TakerRate returns the taker fee as a non-negative fraction, preferring the
// USDT-margined figure when present.
func (f APITradeFee) TakerRate() (float64, error) {
	raw := f.TakerU
	if raw == "" {
		raw = f.Taker
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("okx: parse taker fee %q: %w", raw, err)
	}
	if rate < 0 {
		rate = -rate
	}
	return rate, nil
}

// APILendingRate is one entry of /api/v5/finance/savings/lending-rate-summary.
type APILendingRate struct {
	Ccy     string `json:"ccy"`
	EstRate string `json:"estRate"`
}

// APIBalance is the totalEq field of /api/v5/account/balance.
type APIBalance struct {
	TotalEq string `json:"totalEq"`
}

// SymbolFromInstID strips the instrument-type suffix from a swap instrument
// ID: "BTC-USDT-SWAP" becomes "BTC-USDT". Spot IDs pass through unchanged.
func SymbolFromInstID(instID string) string {
	return strings.TrimSuffix(instID, "-SWAP")
}

// SwapInstID returns the perpetual-swap instrument ID for a symbol.
func SwapInstID(symbol string) string {
	return symbol + "-SWAP"
}
