package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NormalizedEvent is the canonical form of one listing, ready for the
// upsert engine. Coordinates are nil when absent or unparseable, never zero.
type NormalizedEvent struct {
	Name             string
	StartsAt         time.Time
	TicketURL        string
	ExternalID       string
	ArtistExternalID string
	Venue            NormalizedVenue
}

type NormalizedVenue struct {
	Name      string
	City      string
	Region    string
	Country   string
	Latitude  *float64
	Longitude *float64
}

// listing services disagree on whether datetimes carry a zone
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Normalize converts one raw listing into canonical field values.
// Records with an unparseable datetime or without a venue identity are
// dropped (ok=false), silently and per record.
func Normalize(artistName string, raw RawListing) (NormalizedEvent, bool) {
	startsAt, ok := parseDatetime(raw.Datetime)
	if !ok {
		return NormalizedEvent{}, false
	}

	venueName := strings.TrimSpace(raw.Venue.Name)
	city := strings.TrimSpace(raw.Venue.City)
	if venueName == "" || city == "" {
		return NormalizedEvent{}, false
	}

	name := strings.TrimSpace(raw.Title)
	if name == "" {
		name = fmt.Sprintf("%s at %s", artistName, venueName)
	}

	return NormalizedEvent{
		Name:             name,
		StartsAt:         startsAt,
		TicketURL:        pickTicketURL(raw.Offers),
		ExternalID:       strings.TrimSpace(raw.ID),
		ArtistExternalID: strings.TrimSpace(raw.ArtistID),
		Venue: NormalizedVenue{
			Name:      venueName,
			City:      city,
			Region:    strings.TrimSpace(raw.Venue.Region),
			Country:   normalizeCountry(raw.Venue.Country),
			Latitude:  parseCoord(raw.Venue.Latitude),
			Longitude: parseCoord(raw.Venue.Longitude),
		},
	}, true
}

func parseDatetime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// normalizeCountry folds the US spellings into the ISO code and defaults
// a missing country to US; everything else passes through unchanged.
func normalizeCountry(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "", "US", "USA":
		return "US"
	}
	return s
}

func parseCoord(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// pickTicketURL returns the first offer exposing a non-empty URL.
func pickTicketURL(offers []RawOffer) string {
	for _, o := range offers {
		if u := strings.TrimSpace(o.URL); u != "" {
			return u
		}
	}
	return ""
}
