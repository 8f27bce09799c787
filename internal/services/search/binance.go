package search

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/coinwatch/internal/domain"
)

// BinanceSearcher matches terms against Binance's 24hr price-change stats.
// The exchange has no symbol search endpoint, so the full list is fetched
// and filtered locally, the way the product always did.
type BinanceSearcher struct {
	client *binance.Client
	quote  string
	limit  int
}

// NewBinanceSearcher creates a searcher restricted to pairs quoted in the
// given currency.
func NewBinanceSearcher(client *binance.Client, quote string, limit int) *BinanceSearcher {
	if quote == "" {
		quote = "USDT"
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	return &BinanceSearcher{client: client, quote: quote, limit: limit}
}

// Search returns at most limit coins whose symbol contains the term
// case-insensitively. Terms shorter than MinTermLength return nothing.
func (s *BinanceSearcher) Search(ctx context.Context, term string) ([]domain.Coin, error) {
	if utf8.RuneCountInString(strings.TrimSpace(term)) < MinTermLength {
		return nil, nil
	}

	stats, err := s.client.NewListPriceChangeStatsService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch 24hr ticker stats")
	}

	return filterStats(stats, term, s.quote, s.limit), nil
}

// filterStats applies the catalog rules: quote-currency pairs only, symbol
// contains the term, leveraged UP/DOWN tokens excluded, provider order and
// ranking kept, display fields formatted to two decimals.
func filterStats(stats []*binance.PriceChangeStats, term, quote string, limit int) []domain.Coin {
	term = strings.ToLower(strings.TrimSpace(term))
	quoteLower := strings.ToLower(quote)
	quoteUpper := strings.ToUpper(quote)

	var out []domain.Coin
	for _, st := range stats {
		symbol := strings.ToLower(st.Symbol)
		if !strings.HasSuffix(symbol, quoteLower) ||
			!strings.Contains(symbol, term) ||
			strings.Contains(symbol, "up") ||
			strings.Contains(symbol, "down") {
			continue
		}

		base := strings.TrimSuffix(strings.ToUpper(st.Symbol), quoteUpper)
		out = append(out, domain.Coin{
			Symbol:      base,
			Name:        base,
			Price:       displayValue(st.LastPrice),
			PriceChange: displayValue(st.PriceChangePercent),
			Volume:      displayValue(st.Volume),
			High:        displayValue(st.HighPrice),
			Low:         displayValue(st.LowPrice),
		})
		if len(out) == limit {
			break
		}
	}

	return out
}

// displayValue formats a feed decimal to two places, passing the raw value
// through when it does not parse.
func displayValue(raw string) string {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	return d.StringFixed(2)
}
