package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gighub/pkg/models"
)

func TestSyncArtistIdempotent(t *testing.T) {
	store := newFakeStore()
	source := newFakeSource()
	source.listings["Beach House"] = []RawListing{
		futureListing("1", "Mohawk", 10),
		futureListing("2", "Stubb's", 20),
	}
	s := newTestSyncer(store, source)

	first, err := s.SyncArtist(context.Background(), "Beach House", 0)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := s.SyncArtist(context.Background(), "Beach House", 0)
	require.NoError(t, err)
	require.Len(t, second, 2)

	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].ArtistID, second[i].ArtistID)
		assert.Equal(t, first[i].VenueID, second[i].VenueID)
	}

	artists, venues, events := store.counts()
	assert.Equal(t, 1, artists)
	assert.Equal(t, 2, venues)
	assert.Equal(t, 2, events)
}

func TestSyncArtistRefreshesMutableFields(t *testing.T) {
	store := newFakeStore()
	source := newFakeSource()
	listing := futureListing("1", "Mohawk", 10)
	source.listings["Beach House"] = []RawListing{listing}
	s := newTestSyncer(store, source)

	first, err := s.SyncArtist(context.Background(), "Beach House", 0)
	require.NoError(t, err)
	require.Len(t, first, 1)

	listing.Offers = []RawOffer{{Type: "Tickets", URL: "https://tix.example/new"}}
	listing.Title = "Rescheduled Tour"
	source.listings["Beach House"] = []RawListing{listing}

	second, err := s.SyncArtist(context.Background(), "Beach House", 0)
	require.NoError(t, err)
	require.Len(t, second, 1)

	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, "https://tix.example/new", second[0].TicketURL)
	assert.Equal(t, "Rescheduled Tour", second[0].Name)
}

func TestSyncArtistFutureFilterAndLimit(t *testing.T) {
	store := newFakeStore()
	source := newFakeSource()
	past := futureListing("old", "Mohawk", -30)
	source.listings["Artist A"] = []RawListing{
		past,
		futureListing("1", "Mohawk", 5),
		futureListing("2", "Stubb's", 15),
		futureListing("3", "Emo's", 25),
	}
	s := newTestSyncer(store, source)

	events, err := s.SyncArtist(context.Background(), "Artist A", 2)
	require.NoError(t, err)
	require.Len(t, events, 2)

	_, _, stored := store.counts()
	assert.Equal(t, 2, stored)
	assert.True(t, events[0].StartsAt.Before(events[1].StartsAt))
}

func TestSyncArtistDropsInvalidRecords(t *testing.T) {
	store := newFakeStore()
	source := newFakeSource()
	bad := futureListing("bad", "Mohawk", 5)
	bad.Datetime = "not a date"
	source.listings["Artist A"] = []RawListing{bad, futureListing("1", "Stubb's", 5)}
	s := newTestSyncer(store, source)

	events, err := s.SyncArtist(context.Background(), "Artist A", 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestSyncArtistsBatchIsolation(t *testing.T) {
	store := newFakeStore()
	source := newFakeSource()
	source.listings["First"] = []RawListing{futureListing("1", "Mohawk", 5)}
	source.failures["Second"] = errors.New("connection refused")
	source.listings["Third"] = []RawListing{futureListing("3", "Stubb's", 8)}
	s := newTestSyncer(store, source)

	events, err := s.SyncArtists(context.Background(), []string{"First", "Second", "Third"}, Options{})
	require.NoError(t, err)
	require.Len(t, events, 2)

	names := map[string]bool{}
	for _, e := range events {
		names[e.ExternalID] = true
	}
	assert.True(t, names["1"])
	assert.True(t, names["3"])
}

func TestSyncArtistsCapEnforcement(t *testing.T) {
	store := newFakeStore()
	source := newFakeSource()
	var names []string
	for i := 0; i < 15; i++ {
		names = append(names, fmt.Sprintf("Artist %02d", i))
	}
	s := newTestSyncer(store, source)

	_, err := s.SyncArtists(context.Background(), names, Options{MaxArtists: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, source.distinctCalls())
	assert.Equal(t, 10, source.callCount())
}

func TestSyncArtistsDedupeIsCaseSensitive(t *testing.T) {
	store := newFakeStore()
	source := newFakeSource()
	source.listings["Beach House"] = []RawListing{futureListing("1", "Mohawk", 5)}
	source.listings["beach house"] = []RawListing{futureListing("1", "Mohawk", 5)}
	s := newTestSyncer(store, source)

	_, err := s.SyncArtists(context.Background(),
		[]string{"Beach House", "beach house", "Beach House"}, Options{})
	require.NoError(t, err)

	// both spellings are queried externally, but resolve to one artist row
	assert.Equal(t, 2, source.callCount())
	artists, _, _ := store.counts()
	assert.Equal(t, 1, artists)
}

func TestSyncArtistsSortContract(t *testing.T) {
	store := newFakeStore()
	source := newFakeSource()
	source.listings["A"] = []RawListing{
		futureListing("a2", "Mohawk", 40),
		futureListing("a1", "Mohawk", 3),
	}
	source.listings["B"] = []RawListing{
		futureListing("b1", "Stubb's", 20),
		futureListing("b2", "Emo's", 1),
	}
	s := newTestSyncer(store, source)

	events, err := s.SyncArtists(context.Background(), []string{"A", "B"}, Options{})
	require.NoError(t, err)
	require.Len(t, events, 4)
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].StartsAt.Before(events[i-1].StartsAt),
			"events must be non-decreasing by date")
	}
}

func TestSyncArtistsGroupBound(t *testing.T) {
	store := newFakeStore()
	source := newFakeSource()
	var names []string
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("Artist %02d", i)
		names = append(names, name)
		source.listings[name] = []RawListing{futureListing(fmt.Sprintf("e%d", i), "Mohawk", i+1)}
	}
	s := newTestSyncer(store, source)

	_, err := s.SyncArtists(context.Background(), names, Options{})
	require.NoError(t, err)
	assert.LessOrEqual(t, source.maxInFlight, s.GroupSize,
		"outstanding external calls must never exceed the group size")
}

func TestSyncArtistsSharedVenueSingleRow(t *testing.T) {
	store := newFakeStore()
	source := newFakeSource()
	// two artists playing the same room on different nights
	source.listings["A"] = []RawListing{futureListing("a1", "Mohawk", 5)}
	source.listings["B"] = []RawListing{futureListing("b1", "Mohawk", 6)}
	s := newTestSyncer(store, source)

	events, err := s.SyncArtists(context.Background(), []string{"A", "B"}, Options{})
	require.NoError(t, err)
	require.Len(t, events, 2)

	artists, venues, _ := store.counts()
	assert.Equal(t, 2, artists)
	assert.Equal(t, 1, venues)
	assert.Equal(t, events[0].VenueID, events[1].VenueID)
}

func TestSyncArtistsBackfillsExternalID(t *testing.T) {
	store := newFakeStore()
	source := newFakeSource()

	noExt := futureListing("1", "Mohawk", 5)
	noExt.ArtistID = ""
	source.listings["A"] = []RawListing{noExt}
	s := newTestSyncer(store, source)

	_, err := s.SyncArtists(context.Background(), []string{"A"}, Options{})
	require.NoError(t, err)
	a, err := store.FindArtistByName(context.Background(), "A")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Empty(t, a.ExternalID)

	source.listings["A"] = []RawListing{futureListing("1", "Mohawk", 5)}
	_, err = s.SyncArtists(context.Background(), []string{"A"}, Options{})
	require.NoError(t, err)

	after, err := store.FindArtistByName(context.Background(), "A")
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.Equal(t, a.ID, after.ID)
	assert.Equal(t, "ext-1", after.ExternalID)
}

func TestAggregateDedupesByID(t *testing.T) {
	e1 := models.Event{ID: "x", StartsAt: testNow.AddDate(0, 0, 1)}
	e1Later := models.Event{ID: "x", StartsAt: testNow.AddDate(0, 0, 1), Name: "updated"}
	e2 := models.Event{ID: "y", StartsAt: testNow.AddDate(0, 0, 2)}

	out := aggregate([][]models.Event{{e1}, {e1Later, e2}})
	require.Len(t, out, 2)
	assert.Equal(t, "x", out[0].ID)
	assert.Equal(t, "y", out[1].ID)
}

func TestOnArtistSyncedHook(t *testing.T) {
	store := newFakeStore()
	source := newFakeSource()
	source.listings["A"] = []RawListing{
		futureListing("1", "Mohawk", 3),
		futureListing("2", "Stubb's", 5),
	}
	source.failures["B"] = errors.New("connection refused")

	s := newTestSyncer(store, source)

	var mu sync.Mutex
	got := make(map[string]int)
	s.OnArtistSynced = func(name string, count int) {
		mu.Lock()
		defer mu.Unlock()
		got[name] += count
	}

	_, err := s.SyncArtists(context.Background(), []string{"A", "B"}, Options{})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]int{"A": 2}, got, "hook fires only for artists with stored events")
}
