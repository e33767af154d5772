package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validListing() RawListing {
	return RawListing{
		ID:       "103",
		ArtistID: "517",
		Title:    "Night Tour",
		Datetime: "2027-03-01T20:00:00",
		Venue: RawVenue{
			Name:      "The Fillmore",
			City:      "San Francisco",
			Region:    "CA",
			Country:   "United States",
			Latitude:  "37.7840",
			Longitude: "-122.4330",
		},
		Offers: []RawOffer{
			{Type: "Presale", URL: "", Status: "ended"},
			{Type: "Tickets", URL: "https://tix.example/103", Status: "available"},
		},
	}
}

func TestNormalizeValidListing(t *testing.T) {
	n, ok := Normalize("Beach House", validListing())
	require.True(t, ok)

	assert.Equal(t, "Night Tour", n.Name)
	assert.Equal(t, time.Date(2027, 3, 1, 20, 0, 0, 0, time.UTC), n.StartsAt)
	assert.Equal(t, "https://tix.example/103", n.TicketURL)
	assert.Equal(t, "103", n.ExternalID)
	assert.Equal(t, "517", n.ArtistExternalID)
	require.NotNil(t, n.Venue.Latitude)
	assert.InDelta(t, 37.7840, *n.Venue.Latitude, 1e-9)
	require.NotNil(t, n.Venue.Longitude)
	assert.InDelta(t, -122.4330, *n.Venue.Longitude, 1e-9)
}

func TestNormalizeDropsUnparseableDatetime(t *testing.T) {
	for _, bad := range []string{"", "soon", "2027-13-45T99:00:00"} {
		raw := validListing()
		raw.Datetime = bad
		_, ok := Normalize("Beach House", raw)
		assert.False(t, ok, "datetime %q should drop the record", bad)
	}
}

func TestNormalizeDropsMissingVenueIdentity(t *testing.T) {
	raw := validListing()
	raw.Venue.Name = "  "
	_, ok := Normalize("Beach House", raw)
	assert.False(t, ok)

	raw = validListing()
	raw.Venue.City = ""
	_, ok = Normalize("Beach House", raw)
	assert.False(t, ok)
}

func TestNormalizeCountry(t *testing.T) {
	cases := map[string]string{
		"":               "US",
		"US":             "US",
		"usa":            "US",
		"USA":            "US",
		"United States":  "United States",
		"Germany":        "Germany",
		"united kingdom": "united kingdom",
	}
	for in, want := range cases {
		raw := validListing()
		raw.Venue.Country = in
		n, ok := Normalize("Beach House", raw)
		require.True(t, ok)
		assert.Equal(t, want, n.Venue.Country, "country %q", in)
	}
}

func TestNormalizeCoordinatesNeverZero(t *testing.T) {
	raw := validListing()
	raw.Venue.Latitude = "not-a-number"
	raw.Venue.Longitude = ""
	n, ok := Normalize("Beach House", raw)
	require.True(t, ok)
	assert.Nil(t, n.Venue.Latitude)
	assert.Nil(t, n.Venue.Longitude)
}

func TestNormalizeTicketURLAbsentWhenNoOffers(t *testing.T) {
	raw := validListing()
	raw.Offers = nil
	n, ok := Normalize("Beach House", raw)
	require.True(t, ok)
	assert.Empty(t, n.TicketURL)
}

func TestNormalizeSynthesizesDisplayName(t *testing.T) {
	raw := validListing()
	raw.Title = ""
	n, ok := Normalize("Beach House", raw)
	require.True(t, ok)
	assert.Equal(t, "Beach House at The Fillmore", n.Name)
}

func TestNormalizeDatetimeWithZone(t *testing.T) {
	raw := validListing()
	raw.Datetime = "2027-03-01T20:00:00-05:00"
	n, ok := Normalize("Beach House", raw)
	require.True(t, ok)
	assert.Equal(t, time.Date(2027, 3, 2, 1, 0, 0, 0, time.UTC), n.StartsAt)
}
