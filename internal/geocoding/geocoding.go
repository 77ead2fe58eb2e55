package geocoding

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

// ErrNoResult reports that the geocoder had no address for the coordinates.
var ErrNoResult = errors.New("geocoding: no result")

// Client resolves coordinates to human-readable addresses against a
// Nominatim-compatible endpoint. Failures are expected to be tolerated by
// callers; the detection pipeline falls back to a placeholder location.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

func New(baseURL, userAgent string) *Client {
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
}

// ReverseGeocode converts coordinates to an address string. The passed
// context bounds the request; a stalled geocoder never blocks the caller
// past its deadline.
func (c *Client) ReverseGeocode(ctx context.Context, latitude, longitude float64) (string, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(longitude, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("geocoding: building request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("geocoding: reverse lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocoding: reverse lookup returned %d", resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("geocoding: decoding response: %w", err)
	}
	if body.DisplayName == "" {
		return "", ErrNoResult
	}
	return body.DisplayName, nil
}
