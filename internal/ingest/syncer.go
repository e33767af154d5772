package ingest

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"gighub/pkg/models"
)

const (
	DefaultMaxArtists     = 10
	DefaultGroupSize      = 5
	DefaultLimitPerArtist = 50
)

// Syncer drives the full pipeline: fetch listings per artist, normalize,
// canonicalize and upsert, then aggregate. Artists are processed in
// fixed-size groups — concurrent within a group, strictly sequential
// between groups — so outstanding calls to the listing service never
// exceed the group size.
type Syncer struct {
	Store  Store
	Source ListingSource
	Logger *log.Logger

	MaxArtists     int
	GroupSize      int
	LimitPerArtist int

	// OnArtistSynced, when set, is invoked after an artist's listings land
	// with at least one stored event. Runs on the worker goroutine.
	OnArtistSynced func(artistName string, count int)

	now func() time.Time
}

func NewSyncer(store Store, source ListingSource) *Syncer {
	return &Syncer{
		Store:          store,
		Source:         source,
		Logger:         log.Default(),
		MaxArtists:     DefaultMaxArtists,
		GroupSize:      DefaultGroupSize,
		LimitPerArtist: DefaultLimitPerArtist,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Options override the per-call batch knobs; zero values fall back to the
// Syncer defaults.
type Options struct {
	MaxArtists     int
	LimitPerArtist int
}

// SyncArtist runs the pipeline for a single artist name and returns the
// upserted future events. Persistence failures surface as an error;
// fetch failures yield an empty result.
func (s *Syncer) SyncArtist(ctx context.Context, name string, limitPerArtist int) ([]models.Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	if limitPerArtist <= 0 {
		limitPerArtist = s.LimitPerArtist
	}
	events, err := s.syncOne(ctx, name, limitPerArtist)
	if err != nil {
		return nil, err
	}
	return aggregate([][]models.Event{events}), nil
}

// SyncArtists is the batch entry point. Names are trimmed and deduped by
// exact match, capped at maxArtists, then processed group by group. A
// failing artist yields zero events and never aborts its siblings.
func (s *Syncer) SyncArtists(ctx context.Context, names []string, opts Options) ([]models.Event, error) {
	maxArtists := opts.MaxArtists
	if maxArtists <= 0 {
		maxArtists = s.MaxArtists
	}
	limit := opts.LimitPerArtist
	if limit <= 0 {
		limit = s.LimitPerArtist
	}
	groupSize := s.GroupSize
	if groupSize <= 0 {
		groupSize = DefaultGroupSize
	}

	names = dedupeNames(names)
	if len(names) > maxArtists {
		names = names[:maxArtists]
	}

	perArtist := make([][]models.Event, len(names))
	for start := 0; start < len(names); start += groupSize {
		end := start + groupSize
		if end > len(names) {
			end = len(names)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				events, err := s.syncOne(ctx, names[i], limit)
				if err != nil {
					s.Logger.Printf("[ingest] sync %q failed: %v", names[i], err)
					return
				}
				perArtist[i] = events
			}(i)
		}
		wg.Wait()
	}

	return aggregate(perArtist), nil
}

// syncOne is the per-artist pipeline: fetch, keep future listings only,
// normalize, upsert — stopping after limit listings.
func (s *Syncer) syncOne(ctx context.Context, name string, limit int) ([]models.Event, error) {
	listings := s.fetchListings(ctx, name)
	if len(listings) == 0 {
		return nil, nil
	}

	now := s.now()
	out := make([]models.Event, 0, len(listings))
	for _, raw := range listings {
		if len(out) >= limit {
			break
		}
		normalized, ok := Normalize(name, raw)
		if !ok {
			continue
		}
		if !normalized.StartsAt.After(now) {
			continue
		}

		event, err := s.upsertOne(ctx, name, normalized)
		if err != nil {
			return nil, fmt.Errorf("upsert %q: %w", name, err)
		}
		out = append(out, *event)
	}
	if s.OnArtistSynced != nil && len(out) > 0 {
		s.OnArtistSynced(name, len(out))
	}
	return out, nil
}

// fetchListings absorbs transport and payload failures into an empty
// result. Callers cannot distinguish "no shows" from "fetch failed";
// the sync contract is best effort.
func (s *Syncer) fetchListings(ctx context.Context, name string) []RawListing {
	listings, err := s.Source.EventsForArtist(ctx, name)
	if err != nil {
		s.Logger.Printf("[ingest] %s fetch %q: %v", s.Source.Name(), name, err)
		return nil
	}
	return listings
}

// upsertOne resolves artist, then venue, then upserts the event, each via
// an idempotent natural-key write. Calling it twice with identical input
// yields the same three ids and no duplicate rows.
func (s *Syncer) upsertOne(ctx context.Context, artistName string, n NormalizedEvent) (*models.Event, error) {
	artist, err := s.Store.FindArtistByName(ctx, artistName)
	if err != nil {
		return nil, err
	}
	if artist == nil || (artist.ExternalID == "" && n.ArtistExternalID != "") {
		candidate := models.Artist{Name: artistName, ExternalID: n.ArtistExternalID}
		if artist != nil {
			// existing display name wins over the queried spelling
			candidate.Name = artist.Name
		}
		artist, err = s.Store.UpsertArtist(ctx, candidate)
		if err != nil {
			return nil, err
		}
	}

	venue, err := s.Store.UpsertVenue(ctx, models.Venue{
		Name:      n.Venue.Name,
		City:      n.Venue.City,
		Region:    n.Venue.Region,
		Country:   n.Venue.Country,
		Latitude:  n.Venue.Latitude,
		Longitude: n.Venue.Longitude,
	})
	if err != nil {
		return nil, err
	}

	return s.Store.UpsertEvent(ctx, models.Event{
		ArtistID:   artist.ID,
		VenueID:    venue.ID,
		Name:       n.Name,
		StartsAt:   n.StartsAt,
		TicketURL:  n.TicketURL,
		Source:     s.Source.Name(),
		ExternalID: n.ExternalID,
	})
}

// aggregate flattens per-artist results, dedupes by event id
// (last write wins) and sorts ascending by start time.
func aggregate(perArtist [][]models.Event) []models.Event {
	byID := make(map[string]models.Event)
	for _, events := range perArtist {
		for _, e := range events {
			byID[e.ID] = e
		}
	}

	out := make([]models.Event, 0, len(byID))
	for _, e := range byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return out
}

// dedupeNames trims and drops empties, then dedupes by exact string match,
// preserving first-seen order. Matching here is case-sensitive even though
// artist resolution downstream is not; differently-cased spellings cost an
// extra external call but still resolve to one artist row.
func dedupeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
