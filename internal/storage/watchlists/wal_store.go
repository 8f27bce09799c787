// Package watchlists persists the watchlist collection in a local WAL.
package watchlists

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/coinwatch/internal/domain"
)

const (
	defaultDir       = "./wal/watchlists"
	segmentThreshold = 1000
	maxSegments      = 100
	snapshotKey      = "watchlists_snapshot"
)

// WALStore persists the full watchlist collection, one JSON snapshot per
// mutation. The newest valid snapshot wins on recovery.
type WALStore struct {
	wal *gowal.Wal
	log *zap.Logger
	mu  sync.Mutex
}

// NewWALStore initializes a WAL-backed snapshot store under the provided directory.
func NewWALStore(dir string, log *zap.Logger) (*WALStore, error) {
	if dir == "" {
		dir = defaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "snapshot_",
		SegmentThreshold: segmentThreshold,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init watchlists WAL")
	}

	return &WALStore{wal: wal, log: log}, nil
}

// Save appends the full collection as one snapshot entry.
func (s *WALStore) Save(lists []domain.Watchlist) error {
	payload, err := json.Marshal(lists)
	if err != nil {
		return errors.Wrap(err, "marshal watchlists snapshot")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Write(s.wal.CurrentIndex()+1, snapshotKey, payload)
}

// Load returns the most recent valid snapshot, or nil when the WAL is empty.
// Malformed entries are skipped so a damaged tail never blocks startup.
func (s *WALStore) Load() ([]domain.Watchlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lists []domain.Watchlist
	for msg := range s.wal.Iterator() {
		if msg.Key != snapshotKey {
			continue
		}
		var decoded []domain.Watchlist
		if err := json.Unmarshal(msg.Value, &decoded); err != nil {
			s.log.Warn("skipping malformed watchlists snapshot", zap.Error(err))
			continue
		}
		lists = decoded
	}

	return lists, nil
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
