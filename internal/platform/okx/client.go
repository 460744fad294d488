// Package okx implements the market-data collaborator against the OKX v5
// REST and WebSocket APIs. The Client satisfies domain.MarketDataProvider.
package okx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/afashi/funding-rate-arbitrage/internal/crypto"
	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

// restRateKey groups all REST calls under one rate-limit bucket.
const restRateKey = "okx:rest"

// bookDepth is the number of levels requested per book side.
const bookDepth = 20

// apiResponse is the OKX v5 REST envelope. Code "0" means success.
type apiResponse struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// ClientConfig configures the REST client.
type ClientConfig struct {
	BaseURL   string
	Auth      *crypto.HMACAuth // nil for public-only access
	Simulated bool             // sets the demo-trading header
	// Limiter, when non-nil, gates every REST call. Limit/Window define the
	// shared budget.
	Limiter     domain.RateLimiter
	RateLimit   int
	RateWindow  time.Duration
	HTTPTimeout time.Duration
}

// Client is the OKX v5 REST client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       *crypto.HMACAuth
	simulated  bool
	limiter    domain.RateLimiter
	rateLimit  int
	rateWindow time.Duration
}

// NewClient creates a new OKX REST client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 10
	}
	window := cfg.RateWindow
	if window <= 0 {
		window = time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		auth:       cfg.Auth,
		simulated:  cfg.Simulated,
		limiter:    cfg.Limiter,
		rateLimit:  limit,
		rateWindow: window,
	}
}

// FundingRates returns the current funding rate of every USDT-margined
// perpetual, keyed by symbol.
func (c *Client) FundingRates(ctx context.Context) (map[string]float64, error) {
	data, err := c.doGet(ctx, "/api/v5/public/funding-rate?instId=ANY", false)
	if err != nil {
		return nil, fmt.Errorf("okx: funding rates: %w", err)
	}

	var entries []APIFundingRate
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("okx: decode funding rates: %w", err)
	}

	rates := make(map[string]float64, len(entries))
	for _, e := range entries {
		fr, err := e.ToDomain()
		if err != nil {
			continue // tolerate malformed rows, the universe is large
		}
		rates[fr.Symbol] = fr.Rate
	}
	return rates, nil
}

// FundingRateHistory returns full FundingRate records (with timestamps) for
// persistence by the collector.
func (c *Client) FundingRateHistory(ctx context.Context) ([]domain.FundingRate, error) {
	data, err := c.doGet(ctx, "/api/v5/public/funding-rate?instId=ANY", false)
	if err != nil {
		return nil, fmt.Errorf("okx: funding rate history: %w", err)
	}

	var entries []APIFundingRate
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("okx: decode funding rates: %w", err)
	}

	rates := make([]domain.FundingRate, 0, len(entries))
	for _, e := range entries {
		fr, err := e.ToDomain()
		if err != nil {
			continue
		}
		rates = append(rates, fr)
	}
	return rates, nil
}

// OrderBooks fetches the spot and swap books of a symbol. A missing
// instrument yields empty sides, not an error, so the caller can treat it as
// a data gap.
func (c *Client) OrderBooks(ctx context.Context, symbol string) (domain.MarketBooks, error) {
	spot, spotTS, err := c.book(ctx, symbol)
	if err != nil {
		return domain.MarketBooks{}, fmt.Errorf("okx: spot book %s: %w", symbol, err)
	}
	swap, swapTS, err := c.book(ctx, SwapInstID(symbol))
	if err != nil {
		return domain.MarketBooks{}, fmt.Errorf("okx: swap book %s: %w", symbol, err)
	}

	ts := spotTS
	if swapTS.After(ts) {
		ts = swapTS
	}
	return domain.MarketBooks{
		Symbol:    symbol,
		Spot:      spot,
		Swap:      swap,
		Timestamp: ts,
	}, nil
}

func (c *Client) book(ctx context.Context, instID string) (domain.OrderBook, time.Time, error) {
	path := fmt.Sprintf("/api/v5/market/books?instId=%s&sz=%d", url.QueryEscape(instID), bookDepth)
	data, err := c.doGet(ctx, path, false)
	if err != nil {
		return domain.OrderBook{}, time.Time{}, err
	}

	var books []APIOrderBook
	if err := json.Unmarshal(data, &books); err != nil {
		return domain.OrderBook{}, time.Time{}, fmt.Errorf("decode book: %w", err)
	}
	if len(books) == 0 {
		return domain.OrderBook{}, time.Time{}, nil
	}
	book, err := books[0].ToDomain()
	if err != nil {
		return domain.OrderBook{}, time.Time{}, err
	}
	return book, books[0].Timestamp(), nil
}

// TakerFee returns the account's taker fee fraction for the symbol's spot or
// swap instrument. Requires authentication.
func (c *Client) TakerFee(ctx context.Context, symbol string, kind domain.MarketKind) (float64, error) {
	var path string
	switch kind {
	case domain.MarketSpot:
		path = fmt.Sprintf("/api/v5/account/trade-fee?instType=SPOT&instId=%s", url.QueryEscape(symbol))
	case domain.MarketSwap:
		path = fmt.Sprintf("/api/v5/account/trade-fee?instType=SWAP&instFamily=%s", url.QueryEscape(symbol))
	default:
		return 0, fmt.Errorf("okx: taker fee: unknown market kind %q", kind)
	}

	data, err := c.doGet(ctx, path, true)
	if err != nil {
		return 0, fmt.Errorf("okx: taker fee %s %s: %w", symbol, kind, err)
	}

	var fees []APITradeFee
	if err := json.Unmarshal(data, &fees); err != nil {
		return 0, fmt.Errorf("okx: decode trade fee: %w", err)
	}
	if len(fees) == 0 {
		return 0, fmt.Errorf("okx: taker fee %s %s: %w", symbol, kind, domain.ErrNotFound)
	}
	return fees[0].TakerRate()
}

// EarnRates returns the estimated simple-earn lending APR per currency.
func (c *Client) EarnRates(ctx context.Context) (map[string]float64, error) {
	data, err := c.doGet(ctx, "/api/v5/finance/savings/lending-rate-summary", false)
	if err != nil {
		return nil, fmt.Errorf("okx: earn rates: %w", err)
	}

	var entries []APILendingRate
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("okx: decode earn rates: %w", err)
	}

	rates := make(map[string]float64, len(entries))
	for _, e := range entries {
		if rate, err := parseFloat(e.EstRate); err == nil {
			rates[e.Ccy] = rate
		}
	}
	return rates, nil
}

// TotalEquity returns the account's total equity in USD terms. Requires
// authentication.
func (c *Client) TotalEquity(ctx context.Context) (float64, error) {
	data, err := c.doGet(ctx, "/api/v5/account/balance", true)
	if err != nil {
		return 0, fmt.Errorf("okx: total equity: %w", err)
	}

	var balances []APIBalance
	if err := json.Unmarshal(data, &balances); err != nil {
		return 0, fmt.Errorf("okx: decode balance: %w", err)
	}
	if len(balances) == 0 {
		return 0, nil
	}
	return parseFloat(balances[0].TotalEq)
}

// doGet performs a GET against the OKX API, waiting on the rate limiter
// first, signing the request when authenticated is true, and unwrapping the
// response envelope.
func (c *Client) doGet(ctx context.Context, path string, authenticated bool) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, restRateKey, c.rateLimit, c.rateWindow); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.simulated {
		req.Header.Set("x-simulated-trading", "1")
	}
	if authenticated {
		if c.auth == nil {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrUnauthorized)
		}
		for k, v := range c.auth.Headers(http.MethodGet, path, "") {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%s: %w", path, domain.ErrRateLimited)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%s: %w", path, domain.ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%s: unexpected status %d: %s", path, resp.StatusCode, truncate(body, 256))
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if envelope.Code != "0" {
		return nil, fmt.Errorf("%s: api code %s: %s", path, envelope.Code, envelope.Msg)
	}
	return envelope.Data, nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("okx: parse float %q: %w", s, err)
	}
	return f, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
