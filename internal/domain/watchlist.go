package domain

// Watchlist is a named, ordered collection of coins unique by symbol.
type Watchlist struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Coins []Coin `json:"coins"`
}

// HasCoin reports whether a coin with the given symbol is present.
func (w *Watchlist) HasCoin(symbol string) bool {
	for i := range w.Coins {
		if SymbolsEqual(w.Coins[i].Symbol, symbol) {
			return true
		}
	}
	return false
}

// Symbols returns the list's coin symbols in insertion order.
func (w *Watchlist) Symbols() []string {
	out := make([]string, len(w.Coins))
	for i := range w.Coins {
		out[i] = w.Coins[i].Symbol
	}
	return out
}

// Clone returns a deep copy of the watchlist.
func (w *Watchlist) Clone() Watchlist {
	c := *w
	c.Coins = make([]Coin, len(w.Coins))
	copy(c.Coins, w.Coins)
	return c
}
