package domain

import "github.com/pkg/errors"

var (
	// ErrEmptyName rejects watchlist creation with a blank name.
	ErrEmptyName = errors.New("watchlist name is empty")
	// ErrWatchlistNotFound signals an operation on a missing watchlist.
	ErrWatchlistNotFound = errors.New("watchlist not found")
	// ErrCoinAlreadyPresent rejects adding a symbol a watchlist already holds.
	ErrCoinAlreadyPresent = errors.New("coin already present in watchlist")
)
