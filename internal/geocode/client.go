// Package geocode resolves free-text addresses to coordinates through a
// Nominatim-compatible provider. The lookup is a hard dependency of case
// creation and update: no caching, no retry, and a bounded timeout so a
// provider outage surfaces as a request failure rather than a hung request.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ErrNoResults is returned when the provider answers successfully but has
// no candidate for the address. Handlers surface it as a validation-style
// failure on the address field.
var ErrNoResults = errors.New("no geocoding results for address")

// Client queries a Nominatim-compatible search endpoint. The User-Agent is
// required by Nominatim's usage policy; requests without a descriptive one
// get throttled or blocked.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// New builds a Client. timeout bounds the whole lookup including connect
// and body read.
func New(baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
	}
}

// result mirrors the subset of a Nominatim search result we consume.
// Nominatim encodes coordinates as strings.
type result struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Resolve looks up address and returns the first candidate's coordinates.
// Any transport failure, non-200 status, malformed payload or empty result
// set is an error; callers treat all of them as "could not geocode".
func (c *Client) Resolve(ctx context.Context, address string) (Coordinates, error) {
	var coords Coordinates

	q := url.Values{}
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("q", address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return coords, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return coords, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return coords, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var results []result
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return coords, err
	}
	if len(results) == 0 {
		return coords, ErrNoResults
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return coords, fmt.Errorf("invalid latitude %q: %w", results[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return coords, fmt.Errorf("invalid longitude %q: %w", results[0].Lon, err)
	}

	coords.Lat = lat
	coords.Lng = lng
	return coords, nil
}
