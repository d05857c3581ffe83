package region

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meshmon/meshmon/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int64) *int64 { return &v }

type fakeRegionStore struct {
	written map[string]map[string]*models.RegionSnapshot // country -> bucketKey -> snap
	failFor string
	queries int
}

func newFakeRegionStore() *fakeRegionStore {
	return &fakeRegionStore{written: make(map[string]map[string]*models.RegionSnapshot)}
}

func (f *fakeRegionStore) UpsertRegionSnapshot(snap *models.RegionSnapshot) error {
	if snap.Country == f.failFor {
		return errors.New("write failed")
	}

	if f.written[snap.Country] == nil {
		f.written[snap.Country] = make(map[string]*models.RegionSnapshot)
	}

	f.written[snap.Country][snap.BucketKey] = snap

	return nil
}

func (f *fakeRegionStore) GetRegionSnapshots(country, _ string, _, _ time.Time) ([]models.RegionSnapshot, error) {
	f.queries++

	var out []models.RegionSnapshot
	for _, snap := range f.written[country] {
		out = append(out, *snap)
	}

	return out, nil
}

func (f *fakeRegionStore) GetRegionSnapshotBefore(country, bucketKey string) (*models.RegionSnapshot, error) {
	var best *models.RegionSnapshot

	for key, snap := range f.written[country] {
		if key >= bucketKey {
			continue
		}

		if best == nil || key > best.BucketKey {
			best = snap
		}
	}

	return best, nil
}

func networkSnap(bucketKey string, bucketTime time.Time, nodes []models.NodeMetricSnapshot) *models.HistoricalSnapshot {
	return &models.HistoricalSnapshot{
		BucketKey:  bucketKey,
		BucketTime: bucketTime,
		Nodes:      nodes,
		UpdatedAt:  bucketTime,
	}
}

func TestAggregateGroupsByCountry(t *testing.T) {
	store := newFakeRegionStore()
	agg := NewAggregator(store, nil)

	snap := networkSnap("2026-03-01T12:00", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		[]models.NodeMetricSnapshot{
			{NodeKey: "a", Status: models.StatusOnline, Country: "Germany", CountryCode: "DE"},
			{NodeKey: "b", Status: models.StatusOffline, Country: "Germany", CountryCode: "DE"},
			{NodeKey: "c", Status: models.StatusOnline, Country: "France", CountryCode: "FR"},
			{NodeKey: "d", Status: models.StatusOnline}, // no geo
		})

	require.NoError(t, agg.Aggregate(context.Background(), snap))

	require.Contains(t, store.written, "Germany")
	require.Contains(t, store.written, "France")
	require.Contains(t, store.written, "Unknown")

	germany := store.written["Germany"]["2026-03-01T12:00"]
	require.NotNil(t, germany)
	assert.Equal(t, 2, germany.TotalNodes)
	assert.Equal(t, 1, germany.OnlineNodes)
	assert.Equal(t, "DE", germany.CountryCode)
}

func TestAggregateCreditDeltas(t *testing.T) {
	store := newFakeRegionStore()
	agg := NewAggregator(store, nil)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Bucket 1: both nodes report balances.
	snap1 := networkSnap("2026-03-01T12:00", base, []models.NodeMetricSnapshot{
		{NodeKey: "a", Status: models.StatusOnline, Country: "Germany", CreditsEarned: intPtr(100)},
		{NodeKey: "b", Status: models.StatusOnline, Country: "Germany", CreditsEarned: intPtr(50)},
	})
	require.NoError(t, agg.Aggregate(context.Background(), snap1))

	// Bucket 2: node b is absent; node a gains 10.
	snap2 := networkSnap("2026-03-01T12:10", base.Add(10*time.Minute), []models.NodeMetricSnapshot{
		{NodeKey: "a", Status: models.StatusOnline, Country: "Germany", CreditsEarned: intPtr(110)},
	})
	require.NoError(t, agg.Aggregate(context.Background(), snap2))

	bucket2 := store.written["Germany"]["2026-03-01T12:10"]
	require.NotNil(t, bucket2)
	assert.Equal(t, int64(10), bucket2.CreditsEarned)
	// The absent node's balance is carried forward, not forgotten.
	assert.Equal(t, int64(50), bucket2.NodeCredits["b"])

	// Bucket 3: node b returns with 90 credits. Its full +40 since bucket 1
	// is attributed here, despite the gap.
	snap3 := networkSnap("2026-03-01T12:20", base.Add(20*time.Minute), []models.NodeMetricSnapshot{
		{NodeKey: "a", Status: models.StatusOnline, Country: "Germany", CreditsEarned: intPtr(110)},
		{NodeKey: "b", Status: models.StatusOnline, Country: "Germany", CreditsEarned: intPtr(90)},
	})
	require.NoError(t, agg.Aggregate(context.Background(), snap3))

	bucket3 := store.written["Germany"]["2026-03-01T12:20"]
	require.NotNil(t, bucket3)
	assert.Equal(t, int64(40), bucket3.CreditsEarned)
}

func TestAggregateNegativeDeltaIgnored(t *testing.T) {
	store := newFakeRegionStore()
	agg := NewAggregator(store, nil)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	snap1 := networkSnap("2026-03-01T12:00", base, []models.NodeMetricSnapshot{
		{NodeKey: "a", Status: models.StatusOnline, Country: "Germany", CreditsEarned: intPtr(100)},
	})
	require.NoError(t, agg.Aggregate(context.Background(), snap1))

	// A balance reset must not produce negative earnings.
	snap2 := networkSnap("2026-03-01T12:10", base.Add(10*time.Minute), []models.NodeMetricSnapshot{
		{NodeKey: "a", Status: models.StatusOnline, Country: "Germany", CreditsEarned: intPtr(5)},
	})
	require.NoError(t, agg.Aggregate(context.Background(), snap2))

	bucket2 := store.written["Germany"]["2026-03-01T12:10"]
	require.NotNil(t, bucket2)
	assert.Equal(t, int64(0), bucket2.CreditsEarned)
}

func TestAggregateOneCountryFailingDoesNotStopOthers(t *testing.T) {
	store := newFakeRegionStore()
	store.failFor = "Germany"
	agg := NewAggregator(store, nil)

	snap := networkSnap("2026-03-01T12:00", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		[]models.NodeMetricSnapshot{
			{NodeKey: "a", Status: models.StatusOnline, Country: "Germany"},
			{NodeKey: "b", Status: models.StatusOnline, Country: "France"},
		})

	err := agg.Aggregate(context.Background(), snap)

	require.Error(t, err)
	assert.Contains(t, store.written, "France")
}

func TestHistoryUsesCache(t *testing.T) {
	store := newFakeRegionStore()
	cache := NewCache(time.Minute, 16)

	defer cache.Stop()

	agg := NewAggregator(store, cache)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := networkSnap("2026-03-01T12:00", base, []models.NodeMetricSnapshot{
		{NodeKey: "a", Status: models.StatusOnline, Country: "Germany"},
	})
	require.NoError(t, agg.Aggregate(context.Background(), snap))

	start := base.Add(-time.Hour)
	end := base.Add(time.Hour)

	first, err := agg.History(context.Background(), "Germany", "", start, end)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, store.queries)

	// Second identical query is served from the cache.
	second, err := agg.History(context.Background(), "Germany", "", start, end)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 1, store.queries)
}

func TestAggregateInvalidatesCoveringCacheEntries(t *testing.T) {
	store := newFakeRegionStore()
	cache := NewCache(time.Hour, 16)

	defer cache.Stop()

	agg := NewAggregator(store, cache)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snap1 := networkSnap("2026-03-01T12:00", base, []models.NodeMetricSnapshot{
		{NodeKey: "a", Status: models.StatusOnline, Country: "Germany"},
	})
	require.NoError(t, agg.Aggregate(context.Background(), snap1))

	start := base.Add(-time.Hour)
	end := base.Add(time.Hour)

	_, err := agg.History(context.Background(), "Germany", "", start, end)
	require.NoError(t, err)
	require.Equal(t, 1, store.queries)

	// A new bucket inside the cached range evicts the stale entry.
	snap2 := networkSnap("2026-03-01T12:10", base.Add(10*time.Minute), []models.NodeMetricSnapshot{
		{NodeKey: "a", Status: models.StatusOnline, Country: "Germany"},
	})
	require.NoError(t, agg.Aggregate(context.Background(), snap2))

	refreshed, err := agg.History(context.Background(), "Germany", "", start, end)
	require.NoError(t, err)
	assert.Len(t, refreshed, 2)
	assert.Equal(t, 2, store.queries)
}

func TestCacheInvalidateCountryContainingSeparator(t *testing.T) {
	cache := NewCache(time.Hour, 16)

	defer cache.Stop()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	country := "Ger|many"
	snaps := []models.RegionSnapshot{{Country: country}}

	cache.Set(country, "", base.Add(-time.Hour), base.Add(time.Hour), snaps)

	// The separator in the name must not break key parsing.
	got, ok := cache.Get(country, "", base.Add(-time.Hour), base.Add(time.Hour))
	require.True(t, ok)
	require.Len(t, got, 1)

	cache.Invalidate(country, base)

	_, ok = cache.Get(country, "", base.Add(-time.Hour), base.Add(time.Hour))
	assert.False(t, ok)
}

func TestCacheInvalidateLeavesOtherCountries(t *testing.T) {
	cache := NewCache(time.Hour, 16)

	defer cache.Stop()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snaps := []models.RegionSnapshot{{Country: "France"}}

	cache.Set("France", "FR", base.Add(-time.Hour), base.Add(time.Hour), snaps)
	cache.Invalidate("Germany", base)

	got, ok := cache.Get("France", "FR", base.Add(-time.Hour), base.Add(time.Hour))

	assert.True(t, ok)
	assert.Len(t, got, 1)
}
