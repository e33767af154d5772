package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gighub/pkg/utils"
)

// Client fetches concert listings from a Bandsintown-style API.
// The only credential is an application identifier passed as a query param.
type Client struct {
	BaseURL    string
	AppID      string
	HTTPClient *http.Client
}

func NewClient(cfg utils.ListingsConfig) *Client {
	return &Client{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		AppID:   cfg.AppID,
		HTTPClient: &http.Client{
			// one stuck fetch must not stall a whole sync group
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Name() string { return "bandsintown" }

// EventsForArtist issues one GET scoped by artist name. Errors are returned
// to the caller; the sync pipeline decides how to absorb them.
func (c *Client) EventsForArtist(ctx context.Context, artistName string) ([]RawListing, error) {
	u := fmt.Sprintf("%s/artists/%s/events?app_id=%s",
		c.BaseURL, url.PathEscape(artistName), url.QueryEscape(c.AppID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("bandsintown: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bandsintown: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("bandsintown: status %d: %s", resp.StatusCode, string(body))
	}

	var listings []RawListing
	if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
		return nil, fmt.Errorf("bandsintown: decode: %w", err)
	}
	return listings, nil
}
