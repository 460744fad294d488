package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

// ScannerConfig holds the policy knobs for a scan cycle.
type ScannerConfig struct {
	CapitalPerTradeRatio       float64 // fraction of total equity per candidate
	EnableNegativeRateStrategy bool
	Workers                    int // bounded fan-out; 1 means sequential
}

// ScanReport aggregates the outcome counters of one scan cycle. It carries no
// decision payloads; skips are observable only as counts and reasons.
type ScanReport struct {
	StartedAt        time.Time
	FinishedAt       time.Time
	Symbols          int
	Evaluated        int
	Accepted         int
	SkippedDataGap   int
	SkippedDepth     int
	SkippedSlippage  int
	BelowThreshold   int
	Errors           int
	// AcceptedNotional is the summed two-leg notional of all accepted
	// decisions. Capital is not decremented across acceptances within a
	// cycle, so this figure can exceed equity; it is exposed so operators
	// can see over-commitment.
	AcceptedNotional float64
}

// Record converts the report to its persistence shape.
func (r ScanReport) Record() domain.ScanRecord {
	return domain.ScanRecord{
		StartedAt:        r.StartedAt,
		FinishedAt:       r.FinishedAt,
		Symbols:          r.Symbols,
		Evaluated:        r.Evaluated,
		Accepted:         r.Accepted,
		SkippedDataGap:   r.SkippedDataGap,
		SkippedDepth:     r.SkippedDepth,
		SkippedSlippage:  r.SkippedSlippage,
		BelowThreshold:   r.BelowThreshold,
		AcceptedNotional: r.AcceptedNotional,
	}
}

// Scanner iterates the funding-rate universe and evaluates each candidate
// symbol/direction with a fixed capital figure derived once per cycle from
// total equity. Evaluations share no state and run on a bounded worker pool.
type Scanner struct {
	provider  domain.MarketDataProvider
	evaluator *Evaluator
	cfg       ScannerConfig
	logger    *slog.Logger
}

// NewScanner creates a Scanner.
func NewScanner(provider domain.MarketDataProvider, evaluator *Evaluator, cfg ScannerConfig, logger *slog.Logger) *Scanner {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Scanner{
		provider:  provider,
		evaluator: evaluator,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "scanner")),
	}
}

// candidate is one symbol/direction pair selected by the sign of its rate.
type candidate struct {
	symbol string
	rate   float64
	dir    domain.Direction
}

// Scan fetches the funding universe and total equity, derives the per-trade
// capital, and evaluates every candidate. An empty universe or zero equity
// short-circuits to an empty result without any evaluator calls.
func (s *Scanner) Scan(ctx context.Context) ([]domain.Decision, ScanReport, error) {
	report := ScanReport{StartedAt: time.Now().UTC()}

	rates, err := s.provider.FundingRates(ctx)
	if err != nil {
		return nil, report, fmt.Errorf("scan: funding rates: %w", err)
	}
	if len(rates) == 0 {
		s.logger.WarnContext(ctx, "funding universe empty, skipping cycle")
		report.FinishedAt = time.Now().UTC()
		return nil, report, nil
	}

	equity, err := s.provider.TotalEquity(ctx)
	if err != nil {
		return nil, report, fmt.Errorf("scan: total equity: %w", err)
	}
	if equity <= 0 {
		s.logger.WarnContext(ctx, "total equity is zero, nothing to trade")
		report.FinishedAt = time.Now().UTC()
		return nil, report, nil
	}

	capital := equity * s.cfg.CapitalPerTradeRatio
	decisions, err := s.ScanUniverse(ctx, rates, capital, &report)
	report.FinishedAt = time.Now().UTC()
	return decisions, report, err
}

// ScanUniverse evaluates a concrete funding-rate universe with a fixed
// capital per trade. Results come back in scan order: symbols sorted
// lexicographically, so the output is deterministic for deterministic inputs
// regardless of worker count.
func (s *Scanner) ScanUniverse(ctx context.Context, rates map[string]float64, capitalPerTrade float64, report *ScanReport) ([]domain.Decision, error) {
	if report == nil {
		report = &ScanReport{StartedAt: time.Now().UTC()}
	}
	if len(rates) == 0 || capitalPerTrade <= 0 {
		return nil, nil
	}

	symbols := make([]string, 0, len(rates))
	for sym := range rates {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	report.Symbols = len(symbols)

	// Positive rates reward shorting the swap; negative rates reward going
	// long, when that strategy is enabled. The two are mutually exclusive
	// per sign, so a symbol yields at most one candidate per cycle.
	var candidates []candidate
	for _, sym := range symbols {
		rate := rates[sym]
		switch {
		case rate > 0:
			candidates = append(candidates, candidate{symbol: sym, rate: rate, dir: domain.DirectionShort})
		case rate < 0 && s.cfg.EnableNegativeRateStrategy:
			candidates = append(candidates, candidate{symbol: sym, rate: rate, dir: domain.DirectionLong})
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	results := make([]*domain.Decision, len(candidates))
	outcomes := make([]error, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, c := range candidates {
		g.Go(func() error {
			dec, err := s.evaluator.Evaluate(gctx, c.symbol, c.rate, c.dir, capitalPerTrade)
			results[i] = dec
			outcomes[i] = err
			// Per-symbol failures never abort the scan; cancellation does.
			if gctx.Err() != nil {
				return gctx.Err()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	var decisions []domain.Decision
	for i := range candidates {
		report.Evaluated++
		err := outcomes[i]
		switch {
		case err == nil:
			dec := *results[i]
			dec.ID = uuid.NewString()
			decisions = append(decisions, dec)
			report.Accepted++
			report.AcceptedNotional += dec.Notional()
		case errors.Is(err, domain.ErrBelowThreshold):
			report.BelowThreshold++
		case errors.Is(err, domain.ErrSlippageExceeded):
			report.SkippedSlippage++
		case errors.Is(err, domain.ErrInsufficientLiquidity):
			report.SkippedDepth++
		case errors.Is(err, domain.ErrDataGap):
			report.SkippedDataGap++
		default:
			report.Errors++
			s.logger.WarnContext(ctx, "candidate evaluation failed",
				slog.String("symbol", candidates[i].symbol),
				slog.String("direction", string(candidates[i].dir)),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "scan cycle complete",
		slog.Int("symbols", report.Symbols),
		slog.Int("evaluated", report.Evaluated),
		slog.Int("accepted", report.Accepted),
		slog.Float64("accepted_notional", report.AcceptedNotional),
	)
	return decisions, nil
}
