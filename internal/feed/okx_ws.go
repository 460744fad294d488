package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
	"github.com/afashi/funding-rate-arbitrage/internal/platform/okx"
)

// FundingUpdateHandler is called for each funding-rate push.
type FundingUpdateHandler func(ctx context.Context, rate domain.FundingRate)

// OKXWSFeed connects to the OKX public WebSocket, subscribes to the
// funding-rate channel for the given swap instruments, and invokes the
// handler on each push. It reconnects on disconnect.
type OKXWSFeed struct {
	wsURL     string
	instIDs   []string
	onFunding FundingUpdateHandler
	logger    *slog.Logger
	closeOnce sync.Once
	done      chan struct{}
}

// NewOKXWSFeed creates a feed that will subscribe to the given swap
// instrument IDs, e.g. "BTC-USDT-SWAP".
func NewOKXWSFeed(wsURL string, instIDs []string, onFunding FundingUpdateHandler, logger *slog.Logger) *OKXWSFeed {
	return &OKXWSFeed{
		wsURL:     wsURL,
		instIDs:   instIDs,
		onFunding: onFunding,
		logger:    logger.With(slog.String("component", "okx_ws_feed")),
		done:      make(chan struct{}),
	}
}

// Run connects, subscribes to funding-rate for the configured instruments,
// and runs until ctx is cancelled. Reconnects with backoff on disconnect.
func (f *OKXWSFeed) Run(ctx context.Context) error {
	if len(f.instIDs) == 0 {
		f.logger.Info("no instruments to subscribe, exiting")
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}
		err := f.runConnection(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.Warn("okx ws disconnected, reconnecting", slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func (f *OKXWSFeed) runConnection(ctx context.Context) error {
	client := okx.NewWSClient(f.wsURL)
	defer client.Close()

	client.OnFundingRate(func(fr domain.FundingRate) {
		if f.onFunding != nil {
			f.onFunding(context.Background(), fr)
		}
	})

	connCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	err := client.Connect(connCtx)
	cancel()
	if err != nil {
		return err
	}
	if err := client.SubscribeFundingRates(ctx, f.instIDs); err != nil {
		return err
	}
	f.logger.Info("okx ws subscribed", slog.Int("instruments", len(f.instIDs)))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.done:
		return nil
	case <-client.Dropped():
		return domain.ErrWSDisconnect
	}
}

// Close stops the feed.
func (f *OKXWSFeed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}
