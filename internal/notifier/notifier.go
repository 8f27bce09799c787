// Package notifier holds the transient user-facing message line.
package notifier

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultTTL = 5 * time.Second

// Notifier keeps at most one active notice and clears it automatically
// after a fixed delay. A newer notice restarts the clock; the expiry of an
// older notice never clears a newer one.
type Notifier struct {
	mu      sync.Mutex
	ttl     time.Duration
	current string
	token   uuid.UUID
	log     *zap.Logger
}

// New creates a notifier with the given time-to-live per notice.
func New(ttl time.Duration, log *zap.Logger) *Notifier {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Notifier{ttl: ttl, log: log}
}

// Notify replaces the current notice and schedules its expiry.
func (n *Notifier) Notify(msg string) {
	token := uuid.New()

	n.mu.Lock()
	n.current = msg
	n.token = token
	n.mu.Unlock()

	n.log.Info("user notice", zap.String("message", msg))

	time.AfterFunc(n.ttl, func() {
		n.mu.Lock()
		if n.token == token {
			n.current = ""
		}
		n.mu.Unlock()
	})
}

// Current returns the active notice, or an empty string when there is none.
func (n *Notifier) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.current
}
