// Command coinwatch runs a terminal cryptocurrency watchlist.
// Users create named lists, search Binance's ticker catalog, add coins and
// watch live price updates streamed over the exchange's public websocket.
// State is persisted in a local WAL directory; no server, no accounts.
//
// Usage:
//
//	coinwatch --config config.yaml
//	coinwatch (uses CLI arguments and defaults)
package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	binance "github.com/adshao/go-binance/v2"
	"go.uber.org/zap"

	"github.com/vadiminshakov/coinwatch/config"
	"github.com/vadiminshakov/coinwatch/internal/notifier"
	"github.com/vadiminshakov/coinwatch/internal/services/search"
	"github.com/vadiminshakov/coinwatch/internal/services/stream"
	"github.com/vadiminshakov/coinwatch/internal/setup"
	"github.com/vadiminshakov/coinwatch/internal/storage/watchlists"
	"github.com/vadiminshakov/coinwatch/internal/store"
)

func main() {
	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	storage, err := watchlists.NewWALStore(cfg.StorageDir, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer storage.Close()

	st := store.New(storage, logger)
	notices := notifier.New(cfg.NoticeTTL, logger)

	sync := stream.New(st, stream.WSDialer{}, notices, logger, stream.Config{
		URL:   cfg.StreamURL,
		Quote: cfg.QuoteCurrency,
	})
	defer sync.Close()

	// Coin set changes on the active list must resubscribe the feed;
	// patches coming back from the feed must not.
	st.Subscribe(func(c store.Change) {
		if c.Kind != store.CoinsPatched {
			sync.Refresh()
		}
	})

	// The public catalog and feed need no credentials.
	searcher := search.NewBinanceSearcher(binance.NewClient("", ""), cfg.QuoteCurrency, cfg.SearchLimit)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	tui := setup.New(st, sync, searcher, notices, cfg.RefreshEvery)
	if err := tui.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
