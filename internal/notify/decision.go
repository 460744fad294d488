package notify

import (
	"fmt"
	"strings"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

// Event types emitted by the scan pipeline.
const (
	// EventOpportunity is emitted once per accepted decision.
	EventOpportunity = "opportunity"
	// EventScanError is emitted when a scan cycle fails outright, as opposed
	// to individual candidates being skipped.
	EventScanError = "scan_error"
)

// FormatDecision renders an accepted decision as a notification title and
// body. Rates are shown as percentages.
func FormatDecision(dec domain.Decision) (title, message string) {
	title = fmt.Sprintf("Funding arb: %s %s", dec.Symbol, dec.Direction)

	var b strings.Builder
	fmt.Fprintf(&b, "Net APR: %.2f%%\n", dec.NetAPR*100)
	fmt.Fprintf(&b, "Funding rate: %.4f%%\n", dec.FundingRate*100)
	fmt.Fprintf(&b, "Capital per leg: %.2f USDT (x%.1f)\n", dec.Capital, dec.Leverage)
	fmt.Fprintf(&b, "Spot fill: %.6f (slippage %.4f%%)\n", dec.SpotFill.AveragePrice, dec.SpotFill.Slippage*100)
	fmt.Fprintf(&b, "Swap fill: %.6f (slippage %.4f%%)\n", dec.SwapFill.AveragePrice, dec.SwapFill.Slippage*100)
	fmt.Fprintf(&b, "Detected at: %s\n", dec.DetectedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "ID: %s", dec.ID)

	return title, b.String()
}
