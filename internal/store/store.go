// Package store owns the authoritative, persisted watchlist collection.
package store

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vadiminshakov/coinwatch/internal/domain"
)

// Storage is the durable local storage the store mirrors itself into.
type Storage interface {
	Save(lists []domain.Watchlist) error
	Load() ([]domain.Watchlist, error)
}

// ChangeKind classifies a store mutation for subscribers.
type ChangeKind int

const (
	// ListSetChanged means a watchlist was created or deleted.
	ListSetChanged ChangeKind = iota
	// CoinSetChanged means a coin was added to or removed from a watchlist.
	CoinSetChanged
	// CoinsPatched means display fields were replaced by the live feed.
	CoinsPatched
)

// Change describes a store mutation delivered to subscribers.
type Change struct {
	Kind        ChangeKind
	WatchlistID string
}

// Store is the single source of truth for watchlists. Every effective
// mutation serializes the full collection to storage before returning and
// then notifies subscribers. Mutations follow a single-writer discipline;
// reads may come from any goroutine.
type Store struct {
	mu      sync.RWMutex
	lists   []domain.Watchlist
	storage Storage
	log     *zap.Logger

	subsMu sync.RWMutex
	subs   []func(Change)
}

// New restores the collection from storage, falling back to an empty one
// when nothing was persisted or the persisted state cannot be read.
func New(storage Storage, log *zap.Logger) *Store {
	lists, err := storage.Load()
	if err != nil {
		log.Warn("could not restore watchlists, starting empty", zap.Error(err))
		lists = nil
	}

	return &Store{lists: lists, storage: storage, log: log}
}

// Subscribe registers a callback invoked after every effective mutation.
// Callbacks run outside the store's locks and may call back into the store.
func (s *Store) Subscribe(fn func(Change)) {
	s.subsMu.Lock()
	s.subs = append(s.subs, fn)
	s.subsMu.Unlock()
}

// Create appends a new empty watchlist with a fresh time-derived id.
func (s *Store) Create(name string) (domain.Watchlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Watchlist{}, domain.ErrEmptyName
	}

	s.mu.Lock()
	wl := domain.Watchlist{ID: s.nextIDLocked(), Name: name, Coins: []domain.Coin{}}
	s.lists = append(s.lists, wl)
	s.persistLocked()
	s.mu.Unlock()

	s.notify(Change{Kind: ListSetChanged, WatchlistID: wl.ID})
	return wl.Clone(), nil
}

// Delete removes the watchlist with the given id. Deleting a missing id is
// a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.lists = append(s.lists[:idx], s.lists[idx+1:]...)
	s.persistLocked()
	s.mu.Unlock()

	s.notify(Change{Kind: ListSetChanged, WatchlistID: id})
}

// AddCoin appends the coin to the watchlist. The existing entry is left
// untouched when the symbol is already present.
func (s *Store) AddCoin(id string, coin domain.Coin) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return domain.ErrWatchlistNotFound
	}
	if s.lists[idx].HasCoin(coin.Symbol) {
		s.mu.Unlock()
		return domain.ErrCoinAlreadyPresent
	}
	s.lists[idx].Coins = append(s.lists[idx].Coins, coin)
	s.persistLocked()
	s.mu.Unlock()

	s.notify(Change{Kind: CoinSetChanged, WatchlistID: id})
	return nil
}

// RemoveCoin drops any coin with the given symbol from the watchlist.
// Missing watchlist or symbol is a no-op.
func (s *Store) RemoveCoin(id, symbol string) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}

	coins := s.lists[idx].Coins
	kept := coins[:0]
	for _, c := range coins {
		if !domain.SymbolsEqual(c.Symbol, symbol) {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(coins) {
		s.mu.Unlock()
		return
	}
	s.lists[idx].Coins = kept
	s.persistLocked()
	s.mu.Unlock()

	s.notify(Change{Kind: CoinSetChanged, WatchlistID: id})
}

// PatchCoin replaces display fields of every coin matching the symbol,
// across all watchlists. It never creates coins; no match is a no-op.
func (s *Store) PatchCoin(symbol string, patch domain.CoinPatch) {
	s.mu.Lock()
	matched := false
	for li := range s.lists {
		for ci := range s.lists[li].Coins {
			if domain.SymbolsEqual(s.lists[li].Coins[ci].Symbol, symbol) {
				patch.Apply(&s.lists[li].Coins[ci])
				matched = true
			}
		}
	}
	if !matched {
		s.mu.Unlock()
		return
	}
	s.persistLocked()
	s.mu.Unlock()

	s.notify(Change{Kind: CoinsPatched})
}

// Get returns a copy of the watchlist with the given id.
func (s *Store) Get(id string) (domain.Watchlist, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return domain.Watchlist{}, false
	}
	return s.lists[idx].Clone(), true
}

// Snapshot returns a deep copy of the full ordered collection.
func (s *Store) Snapshot() []domain.Watchlist {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Watchlist, len(s.lists))
	for i := range s.lists {
		out[i] = s.lists[i].Clone()
	}
	return out
}

func (s *Store) indexLocked(id string) int {
	for i := range s.lists {
		if s.lists[i].ID == id {
			return i
		}
	}
	return -1
}

// nextIDLocked derives an id from the wall clock, bumping it until it does
// not collide with an existing watchlist.
func (s *Store) nextIDLocked() string {
	n := time.Now().UnixMilli()
	for s.indexLocked(strconv.FormatInt(n, 10)) >= 0 {
		n++
	}
	return strconv.FormatInt(n, 10)
}

// persistLocked mirrors the collection into storage. A failed write keeps
// the in-memory state authoritative and the last good snapshot on disk.
func (s *Store) persistLocked() {
	if err := s.storage.Save(s.lists); err != nil {
		s.log.Error("failed to persist watchlists", zap.Error(err))
	}
}

func (s *Store) notify(c Change) {
	s.subsMu.RLock()
	subs := make([]func(Change), len(s.subs))
	copy(subs, s.subs)
	s.subsMu.RUnlock()

	for _, fn := range subs {
		fn(c)
	}
}
