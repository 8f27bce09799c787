package stream

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/coinwatch/internal/domain"
)

// tickerEventType marks 24hr ticker pushes; everything else on the socket
// (subscribe acks, other channels) is ignored.
const tickerEventType = "24hrTicker"

// subscribeRequest is the feed's channel subscription envelope.
type subscribeRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     uint64   `json:"id"`
}

// tickerEvent is the subset of the feed's 24hr ticker payload the watchlist
// displays.
type tickerEvent struct {
	EventType          string `json:"e"`
	Symbol             string `json:"s"`
	LastPrice          string `json:"c"`
	PriceChangePercent string `json:"P"`
	Volume             string `json:"v"`
	HighPrice          string `json:"h"`
	LowPrice           string `json:"l"`
}

// patch converts feed values into a display patch. A field that fails to
// parse stays nil so the prior display value survives.
func (ev tickerEvent) patch() domain.CoinPatch {
	return domain.CoinPatch{
		Price:       fixed2(ev.LastPrice),
		PriceChange: fixed2(ev.PriceChangePercent),
		Volume:      fixed2(ev.Volume),
		High:        fixed2(ev.HighPrice),
		Low:         fixed2(ev.LowPrice),
	}
}

func fixed2(raw string) *string {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	s := d.StringFixed(2)
	return &s
}

// streamName maps a coin symbol to the feed's per-symbol ticker channel,
// e.g. BTC with quote USDT becomes btcusdt@ticker.
func streamName(symbol, quote string) string {
	return strings.ToLower(symbol) + strings.ToLower(quote) + "@ticker"
}

// baseSymbol strips the quote-currency suffix from a feed-reported symbol.
func baseSymbol(feedSymbol, quote string) string {
	s := strings.ToUpper(feedSymbol)
	return strings.TrimSuffix(s, strings.ToUpper(quote))
}
