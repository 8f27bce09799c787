// Package domain defines core data structures used throughout the watchlist.
package domain

import "strings"

// Coin is a quoted trading pair tracked by a watchlist.
// Symbol is the exchange ticker with the quote currency stripped and is
// immutable once the coin is in a list; the remaining fields are
// display-formatted strings replaced wholesale on every feed update.
type Coin struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	PriceChange string `json:"priceChange"`
	Volume      string `json:"volume"`
	High        string `json:"high"`
	Low         string `json:"low"`
}

// CoinPatch carries replacement display values for a coin.
// Nil fields keep the prior value.
type CoinPatch struct {
	Price       *string
	PriceChange *string
	Volume      *string
	High        *string
	Low         *string
}

// Apply writes the non-nil patch fields onto the coin.
func (p CoinPatch) Apply(c *Coin) {
	if p.Price != nil {
		c.Price = *p.Price
	}
	if p.PriceChange != nil {
		c.PriceChange = *p.PriceChange
	}
	if p.Volume != nil {
		c.Volume = *p.Volume
	}
	if p.High != nil {
		c.High = *p.High
	}
	if p.Low != nil {
		c.Low = *p.Low
	}
}

// SymbolsEqual compares ticker symbols case-insensitively.
func SymbolsEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}
