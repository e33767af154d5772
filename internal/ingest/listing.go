package ingest

import "context"

// RawListing is the loosely-typed event record as the listing service
// reports it. Fields the service leaves out simply decode to zero values;
// validation happens in the normalizer, per record.
type RawListing struct {
	ID       string     `json:"id"`
	ArtistID string     `json:"artist_id"`
	Title    string     `json:"title"`
	Datetime string     `json:"datetime"`
	URL      string     `json:"url"`
	Venue    RawVenue   `json:"venue"`
	Offers   []RawOffer `json:"offers"`
	Lineup   []string   `json:"lineup"`
}

type RawVenue struct {
	Name      string `json:"name"`
	City      string `json:"city"`
	Region    string `json:"region"`
	Country   string `json:"country"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

type RawOffer struct {
	Type   string `json:"type"`
	URL    string `json:"url"`
	Status string `json:"status"`
}

// ListingSource is implemented by each external concert-listing provider.
// A source fetches the raw records for one artist name; it does not retry
// or back off — rate-limit protection lives in the batch orchestration.
type ListingSource interface {
	Name() string
	EventsForArtist(ctx context.Context, artistName string) ([]RawListing, error)
}
