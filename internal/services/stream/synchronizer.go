// Package stream keeps the active watchlist's coins fresh from the
// exchange's live ticker feed.
package stream

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/gopkg/util/gopool"
	"go.uber.org/zap"

	"github.com/vadiminshakov/coinwatch/internal/domain"
)

const (
	defaultStreamURL = "wss://stream.binance.com:9443/ws"
	defaultQuote     = "USDT"
	dialTimeout      = 15 * time.Second
)

// State of the feed connection lifecycle.
type State int

const (
	// StateIdle means no connection is wanted or open.
	StateIdle State = iota
	// StateConnecting means a dial or subscribe is in flight.
	StateConnecting
	// StateSubscribed means the feed is delivering ticks.
	StateSubscribed
	// StateClosed means the remote closed the connection; the next refresh
	// re-enters StateConnecting.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Store is the slice of the watchlist store the synchronizer touches: it
// reads the active list's symbols and submits per-symbol patches. It never
// creates or deletes coins.
type Store interface {
	Get(id string) (domain.Watchlist, bool)
	PatchCoin(symbol string, patch domain.CoinPatch)
}

// Notifier surfaces transient connection problems to the user.
type Notifier interface {
	Notify(msg string)
}

// Config tunes the feed endpoint and symbol mapping.
type Config struct {
	URL   string
	Quote string
}

// Synchronizer owns at most one open feed connection, subscribed to the
// per-symbol ticker channels of the active watchlist. Any change to the
// active list or its symbol set closes the connection and resubscribes with
// the full new set; a generation counter silences handlers of torn-down
// connections so a stale reader can never patch the store.
type Synchronizer struct {
	store    Store
	dialer   Dialer
	notifier Notifier
	log      *zap.Logger
	url      string
	quote    string

	mu         sync.Mutex
	active     string
	subscribed string // watchlist id the current connection serves
	symbols    []string
	conn       Conn
	gen        uint64
	reqID      uint64
	state      State
}

// New creates a synchronizer. It stays idle until SetActive names a
// watchlist with at least one coin.
func New(store Store, dialer Dialer, notifier Notifier, log *zap.Logger, cfg Config) *Synchronizer {
	if cfg.URL == "" {
		cfg.URL = defaultStreamURL
	}
	if cfg.Quote == "" {
		cfg.Quote = defaultQuote
	}

	return &Synchronizer{
		store:    store,
		dialer:   dialer,
		notifier: notifier,
		log:      log,
		url:      cfg.URL,
		quote:    cfg.Quote,
	}
}

// SetActive selects the watchlist to keep live and reconciles the
// subscription with its symbol set.
func (s *Synchronizer) SetActive(id string) {
	s.mu.Lock()
	s.active = id
	s.mu.Unlock()

	s.Refresh()
}

// ClearActive drops the selection and tears down any open connection.
func (s *Synchronizer) ClearActive() {
	s.SetActive("")
}

// Active returns the currently selected watchlist id.
func (s *Synchronizer) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.active
}

// State returns the current lifecycle state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Refresh reconciles the open connection with the active watchlist's symbol
// set. It is idempotent and safe to invoke repeatedly: an unchanged set on a
// live connection is a no-op, anything else is a full teardown and
// resubscribe.
func (s *Synchronizer) Refresh() {
	s.mu.Lock()

	want := s.desiredSymbolsLocked()
	live := s.state == StateConnecting || s.state == StateSubscribed
	if live && s.active == s.subscribed && symbolSetEqual(want, s.symbols) {
		s.mu.Unlock()
		return
	}

	s.teardownLocked()
	s.symbols = want
	s.subscribed = s.active
	if len(want) == 0 {
		s.mu.Unlock()
		return
	}

	s.state = StateConnecting
	gen := s.gen
	s.mu.Unlock()

	gopool.Go(func() {
		s.connect(gen, want)
	})
}

// Close tears everything down. No handler may patch the store afterwards.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	s.active = ""
	s.subscribed = ""
	s.symbols = nil
	s.teardownLocked()
	s.mu.Unlock()
}

func (s *Synchronizer) desiredSymbolsLocked() []string {
	if s.active == "" {
		return nil
	}
	wl, ok := s.store.Get(s.active)
	if !ok {
		return nil
	}
	return wl.Symbols()
}

// teardownLocked bumps the generation so in-flight dials and readers of the
// previous connection become no-ops, then closes the connection.
func (s *Synchronizer) teardownLocked() {
	s.gen++
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.log.Debug("feed close", zap.Error(err))
		}
		s.conn = nil
	}
	s.state = StateIdle
}

func (s *Synchronizer) connect(gen uint64, symbols []string) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	conn, err := s.dialer.Dial(ctx, s.url)
	if err != nil {
		s.log.Warn("feed connect failed", zap.String("url", s.url), zap.Error(err))
		if s.notifier != nil {
			s.notifier.Notify("live price feed is unavailable")
		}
		s.mu.Lock()
		if s.gen == gen {
			s.state = StateIdle
		}
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conn = conn
	s.reqID++
	req := subscribeRequest{Method: "SUBSCRIBE", ID: s.reqID}
	for _, sym := range symbols {
		req.Params = append(req.Params, streamName(sym, s.quote))
	}
	s.mu.Unlock()

	payload, err := json.Marshal(req)
	if err == nil {
		err = conn.Send(payload)
	}
	if err != nil {
		s.log.Warn("feed subscribe failed", zap.Error(err))
		if s.notifier != nil {
			s.notifier.Notify("live price feed is unavailable")
		}
		s.mu.Lock()
		if s.gen == gen {
			s.teardownLocked()
		}
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.state = StateSubscribed
	s.mu.Unlock()

	s.log.Info("subscribed to ticker channels",
		zap.Strings("symbols", symbols), zap.String("quote", s.quote))

	gopool.Go(func() {
		s.readLoop(gen, conn)
	})
}

func (s *Synchronizer) readLoop(gen uint64, conn Conn) {
	for {
		msg, err := conn.Read()
		if err != nil {
			s.mu.Lock()
			if s.gen == gen {
				s.conn = nil
				s.state = StateClosed
				s.log.Info("feed connection closed", zap.Error(err))
			}
			s.mu.Unlock()
			return
		}

		s.mu.Lock()
		stale := s.gen != gen
		s.mu.Unlock()
		if stale {
			return
		}

		s.handleMessage(msg)
	}
}

func (s *Synchronizer) handleMessage(raw []byte) {
	var ev tickerEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		s.log.Debug("dropping malformed feed message", zap.Error(err))
		return
	}
	if ev.EventType != tickerEventType {
		return
	}

	s.store.PatchCoin(baseSymbol(ev.Symbol, s.quote), ev.patch())
}

// symbolSetEqual compares symbol sets ignoring order and case.
func symbolSetEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := normalized(a)
	bs := normalized(b)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func normalized(symbols []string) []string {
	out := make([]string, len(symbols))
	for i, s := range symbols {
		out[i] = strings.ToUpper(s)
	}
	sort.Strings(out)
	return out
}
