package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gighub/pkg/models"
)

// fakeStore is an in-memory Store with the same natural-key semantics as
// SQLStore: case-insensitive artist names, (name, city, country) venues,
// (artist, venue, starts_at) events.
type fakeStore struct {
	mu      sync.Mutex
	artists map[string]*models.Artist // lower(name) -> row
	venues  map[string]*models.Venue  // name|city|country -> row
	events  map[string]*models.Event  // artistID|venueID|unix -> row
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		artists: make(map[string]*models.Artist),
		venues:  make(map[string]*models.Venue),
		events:  make(map[string]*models.Event),
	}
}

func (f *fakeStore) FindArtistByName(_ context.Context, name string) (*models.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.artists[strings.ToLower(name)]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeStore) UpsertArtist(_ context.Context, a models.Artist) (*models.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.ToLower(a.Name)
	if existing, ok := f.artists[key]; ok {
		if existing.ExternalID == "" {
			existing.ExternalID = a.ExternalID
		}
		copied := *existing
		return &copied, nil
	}
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	f.artists[key] = &a
	copied := a
	return &copied, nil
}

func venueKey(name, city, country string) string {
	return name + "|" + city + "|" + country
}

func (f *fakeStore) FindVenueByNaturalKey(_ context.Context, name, city, country string) (*models.Venue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.venues[venueKey(name, city, country)]; ok {
		copied := *v
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeStore) UpsertVenue(_ context.Context, v models.Venue) (*models.Venue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := venueKey(v.Name, v.City, v.Country)
	if existing, ok := f.venues[key]; ok {
		existing.Region = v.Region
		if v.Latitude != nil {
			existing.Latitude = v.Latitude
		}
		if v.Longitude != nil {
			existing.Longitude = v.Longitude
		}
		copied := *existing
		return &copied, nil
	}
	v.ID = uuid.NewString()
	f.venues[key] = &v
	copied := v
	return &copied, nil
}

func (f *fakeStore) UpsertEvent(_ context.Context, e models.Event) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%s|%s|%d", e.ArtistID, e.VenueID, e.StartsAt.UTC().Unix())
	if existing, ok := f.events[key]; ok {
		existing.Name = e.Name
		existing.TicketURL = e.TicketURL
		existing.Source = e.Source
		existing.ExternalID = e.ExternalID
		copied := *existing
		return &copied, nil
	}
	e.ID = uuid.NewString()
	f.events[key] = &e
	copied := e
	return &copied, nil
}

func (f *fakeStore) counts() (artists, venues, events int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.artists), len(f.venues), len(f.events)
}

// fakeSource serves canned listings per artist name and records every call.
type fakeSource struct {
	mu          sync.Mutex
	listings    map[string][]RawListing
	failures    map[string]error
	calls       []string
	inFlight    int
	maxInFlight int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		listings: make(map[string][]RawListing),
		failures: make(map[string]error),
	}
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) EventsForArtist(_ context.Context, artistName string) ([]RawListing, error) {
	f.mu.Lock()
	f.calls = append(f.calls, artistName)
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	// give sibling goroutines a chance to overlap
	time.Sleep(2 * time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
	if err, ok := f.failures[artistName]; ok {
		return nil, err
	}
	return f.listings[artistName], nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSource) distinctCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]struct{})
	for _, c := range f.calls {
		seen[c] = struct{}{}
	}
	return len(seen)
}

// futureListing builds a valid raw listing n days into the future
// relative to the fixed test clock.
func futureListing(id, venueName string, daysAhead int) RawListing {
	return RawListing{
		ID:       id,
		ArtistID: "ext-" + id,
		Datetime: testNow.AddDate(0, 0, daysAhead).Format("2006-01-02T15:04:05"),
		Venue: RawVenue{
			Name:    venueName,
			City:    "Austin",
			Region:  "TX",
			Country: "US",
		},
		Offers: []RawOffer{{Type: "Tickets", URL: "https://tix.example/" + id}},
	}
}

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestSyncer(store Store, source ListingSource) *Syncer {
	s := NewSyncer(store, source)
	s.now = func() time.Time { return testNow }
	return s
}
