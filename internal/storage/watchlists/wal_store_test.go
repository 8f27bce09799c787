package watchlists

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/gowal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/coinwatch/internal/domain"
)

func sampleLists() []domain.Watchlist {
	return []domain.Watchlist{
		{
			ID:   "1700000000000",
			Name: "Majors",
			Coins: []domain.Coin{
				{Symbol: "BTC", Name: "BTC", Price: "50000.00", PriceChange: "1.25", Volume: "1000.00", High: "51000.00", Low: "49000.00"},
				{Symbol: "ETH", Name: "ETH", Price: "3000.00", PriceChange: "-0.50", Volume: "2000.00", High: "3100.00", Low: "2900.00"},
			},
		},
		{ID: "1700000000001", Name: "Empty", Coins: []domain.Coin{}},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s, err := NewWALStore(dir, zap.NewNop())
	require.NoError(t, err)

	want := sampleLists()
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got, "round-trip must reproduce the identical ordered collection")
	require.NoError(t, s.Close())

	// a fresh process sees the same state
	reopened, err := NewWALStore(dir, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	got, err = reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadEmptyWAL(t *testing.T) {
	s, err := NewWALStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLatestSnapshotWins(t *testing.T) {
	s, err := NewWALStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	first := sampleLists()
	require.NoError(t, s.Save(first))

	second := sampleLists()[:1]
	second[0].Coins = second[0].Coins[:1]
	require.NoError(t, s.Save(second))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestMalformedSnapshotDoesNotBlockStartup(t *testing.T) {
	dir := t.TempDir()

	s, err := NewWALStore(dir, zap.NewNop())
	require.NoError(t, err)
	want := sampleLists()
	require.NoError(t, s.Save(want))
	require.NoError(t, s.Close())

	// simulate a corrupted tail written under the snapshot key
	raw, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "snapshot_",
		SegmentThreshold: segmentThreshold,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	})
	require.NoError(t, err)
	require.NoError(t, raw.Write(raw.CurrentIndex()+1, snapshotKey, []byte("not json")))
	require.NoError(t, raw.Close())

	reopened, err := NewWALStore(dir, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got, "the damaged entry is skipped, the last good snapshot survives")
}

func TestOnlyMalformedDataStartsEmpty(t *testing.T) {
	dir := t.TempDir()

	raw, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "snapshot_",
		SegmentThreshold: segmentThreshold,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	})
	require.NoError(t, err)
	require.NoError(t, raw.Write(raw.CurrentIndex()+1, snapshotKey, []byte("not json")))
	require.NoError(t, raw.Close())

	s, err := NewWALStore(dir, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, got)
}
