package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/coinwatch/internal/domain"
)

type fakeStorage struct {
	mu      sync.Mutex
	saved   [][]domain.Watchlist
	load    []domain.Watchlist
	loadErr error
}

func (f *fakeStorage) Save(lists []domain.Watchlist) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := make([]domain.Watchlist, len(lists))
	for i := range lists {
		cp[i] = lists[i].Clone()
	}
	f.saved = append(f.saved, cp)
	return nil
}

func (f *fakeStorage) Load() ([]domain.Watchlist, error) {
	return f.load, f.loadErr
}

func (f *fakeStorage) saves() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.saved)
}

func newTestStore(t *testing.T) (*Store, *fakeStorage) {
	t.Helper()
	storage := &fakeStorage{}
	return New(storage, zap.NewNop()), storage
}

func btc() domain.Coin {
	return domain.Coin{
		Symbol: "BTC", Name: "BTC",
		Price: "50000.00", PriceChange: "1.25", Volume: "1000.00",
		High: "51000.00", Low: "49000.00",
	}
}

func eth() domain.Coin {
	return domain.Coin{
		Symbol: "ETH", Name: "ETH",
		Price: "3000.00", PriceChange: "-0.50", Volume: "2000.00",
		High: "3100.00", Low: "2900.00",
	}
}

func TestCreateAssignsUniqueIDs(t *testing.T) {
	st, storage := newTestStore(t)

	ids := make(map[string]struct{})
	for i := 0; i < 5; i++ {
		wl, err := st.Create("list")
		require.NoError(t, err)
		ids[wl.ID] = struct{}{}
	}

	assert.Len(t, ids, 5, "ids must never collide")
	assert.Equal(t, 5, storage.saves(), "every mutation persists")
}

func TestCreateRejectsEmptyName(t *testing.T) {
	st, storage := newTestStore(t)

	for _, name := range []string{"", "   ", "\t"} {
		_, err := st.Create(name)
		assert.ErrorIs(t, err, domain.ErrEmptyName)
	}
	assert.Zero(t, storage.saves())
	assert.Empty(t, st.Snapshot())
}

func TestDeleteIsIdempotent(t *testing.T) {
	st, storage := newTestStore(t)

	wl, err := st.Create("Majors")
	require.NoError(t, err)

	st.Delete(wl.ID)
	assert.Empty(t, st.Snapshot())

	savesAfterFirst := storage.saves()
	st.Delete(wl.ID)
	assert.Empty(t, st.Snapshot())
	assert.Equal(t, savesAfterFirst, storage.saves(), "deleting a missing id must not persist")
}

func TestAddCoinDuplicateSymbolRejected(t *testing.T) {
	st, _ := newTestStore(t)

	wl, err := st.Create("Majors")
	require.NoError(t, err)

	require.NoError(t, st.AddCoin(wl.ID, btc()))
	err = st.AddCoin(wl.ID, btc())
	assert.ErrorIs(t, err, domain.ErrCoinAlreadyPresent)

	// symbol uniqueness ignores case
	lower := btc()
	lower.Symbol = "btc"
	assert.ErrorIs(t, st.AddCoin(wl.ID, lower), domain.ErrCoinAlreadyPresent)

	got, ok := st.Get(wl.ID)
	require.True(t, ok)
	require.Len(t, got.Coins, 1)
	assert.Equal(t, "BTC", got.Coins[0].Symbol)
}

func TestAddCoinUnknownWatchlist(t *testing.T) {
	st, storage := newTestStore(t)

	assert.ErrorIs(t, st.AddCoin("nope", btc()), domain.ErrWatchlistNotFound)
	assert.Zero(t, storage.saves())
}

func TestRemoveCoin(t *testing.T) {
	st, storage := newTestStore(t)

	wl, err := st.Create("Majors")
	require.NoError(t, err)
	require.NoError(t, st.AddCoin(wl.ID, btc()))
	require.NoError(t, st.AddCoin(wl.ID, eth()))

	st.RemoveCoin(wl.ID, "ETH")
	got, ok := st.Get(wl.ID)
	require.True(t, ok)
	require.Len(t, got.Coins, 1)
	assert.Equal(t, "BTC", got.Coins[0].Symbol)

	// absent symbol and absent watchlist are no-ops
	saves := storage.saves()
	st.RemoveCoin(wl.ID, "DOGE")
	st.RemoveCoin("nope", "BTC")
	assert.Equal(t, saves, storage.saves())
}

func TestPatchCoinAcrossAllWatchlists(t *testing.T) {
	st, _ := newTestStore(t)

	first, err := st.Create("Majors")
	require.NoError(t, err)
	second, err := st.Create("Favorites")
	require.NoError(t, err)

	require.NoError(t, st.AddCoin(first.ID, btc()))
	require.NoError(t, st.AddCoin(first.ID, eth()))
	require.NoError(t, st.AddCoin(second.ID, btc()))

	price := "60000.00"
	change := "5.00"
	st.PatchCoin("btc", domain.CoinPatch{Price: &price, PriceChange: &change})

	for _, wl := range st.Snapshot() {
		for _, c := range wl.Coins {
			if c.Symbol == "BTC" {
				assert.Equal(t, "60000.00", c.Price)
				assert.Equal(t, "5.00", c.PriceChange)
				assert.Equal(t, "1000.00", c.Volume, "unpatched fields keep prior values")
			} else {
				assert.Equal(t, eth(), c, "other symbols must stay untouched")
			}
		}
	}
}

func TestPatchCoinNoMatchDoesNotCreate(t *testing.T) {
	st, storage := newTestStore(t)

	wl, err := st.Create("Majors")
	require.NoError(t, err)
	require.NoError(t, st.AddCoin(wl.ID, btc()))

	saves := storage.saves()
	price := "1.00"
	st.PatchCoin("DOGE", domain.CoinPatch{Price: &price})

	got, ok := st.Get(wl.ID)
	require.True(t, ok)
	assert.Len(t, got.Coins, 1)
	assert.Equal(t, saves, storage.saves(), "no-op patch must not persist")
}

func TestRestoreFromStorage(t *testing.T) {
	storage := &fakeStorage{load: []domain.Watchlist{
		{ID: "1", Name: "Majors", Coins: []domain.Coin{btc()}},
		{ID: "2", Name: "Alts", Coins: []domain.Coin{eth()}},
	}}
	st := New(storage, zap.NewNop())

	snap := st.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "Majors", snap[0].Name)
	assert.Equal(t, "BTC", snap[0].Coins[0].Symbol)
}

func TestRestoreFailureStartsEmpty(t *testing.T) {
	storage := &fakeStorage{loadErr: assert.AnError}
	st := New(storage, zap.NewNop())

	assert.Empty(t, st.Snapshot())

	// the store stays fully usable after a failed restore
	_, err := st.Create("Majors")
	assert.NoError(t, err)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	st, _ := newTestStore(t)

	wl, err := st.Create("Majors")
	require.NoError(t, err)
	require.NoError(t, st.AddCoin(wl.ID, btc()))

	snap := st.Snapshot()
	snap[0].Coins[0].Price = "tampered"
	snap[0].Name = "tampered"

	got, ok := st.Get(wl.ID)
	require.True(t, ok)
	assert.Equal(t, "Majors", got.Name)
	assert.Equal(t, "50000.00", got.Coins[0].Price)
}

func TestSubscribeReceivesChanges(t *testing.T) {
	st, _ := newTestStore(t)

	var mu sync.Mutex
	var changes []Change
	st.Subscribe(func(c Change) {
		mu.Lock()
		changes = append(changes, c)
		mu.Unlock()
	})

	wl, err := st.Create("Majors")
	require.NoError(t, err)
	require.NoError(t, st.AddCoin(wl.ID, btc()))
	price := "1.00"
	st.PatchCoin("BTC", domain.CoinPatch{Price: &price})
	st.Delete(wl.ID)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changes, 4)
	assert.Equal(t, Change{Kind: ListSetChanged, WatchlistID: wl.ID}, changes[0])
	assert.Equal(t, Change{Kind: CoinSetChanged, WatchlistID: wl.ID}, changes[1])
	assert.Equal(t, Change{Kind: CoinsPatched}, changes[2])
	assert.Equal(t, Change{Kind: ListSetChanged, WatchlistID: wl.ID}, changes[3])
}
