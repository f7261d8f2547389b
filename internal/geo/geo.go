// Package geo resolves a project address to coordinates and fetches
// static map imagery for it through a Google-Maps-compatible API.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// Map types accepted by StaticMap.
const (
	MapTypeRoadmap   = "roadmap"
	MapTypeSatellite = "satellite"
)

// Client calls the geocoding and static-map endpoints. BaseURL covers the
// API root; the default production root is used when empty.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

const defaultBaseURL = "https://maps.googleapis.com/maps/api"

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return defaultBaseURL
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves an address to coordinates.
func (c *Client) Geocode(ctx context.Context, address string) (Coordinates, error) {
	q := url.Values{}
	q.Set("address", address)
	if c.APIKey != "" {
		q.Set("key", c.APIKey)
	}
	u := c.baseURL() + "/geocode/json?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Coordinates{}, err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return Coordinates{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Coordinates{}, fmt.Errorf("geocode status: %d", resp.StatusCode)
	}
	var gr geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return Coordinates{}, err
	}
	if gr.Status != "OK" || len(gr.Results) == 0 {
		return Coordinates{}, fmt.Errorf("geocode failed: %s", gr.Status)
	}
	loc := gr.Results[0].Geometry.Location
	return Coordinates{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// StaticMap fetches a rendered map image centered on the coordinates.
// Size is "WxH" in pixels.
func (c *Client) StaticMap(ctx context.Context, coords Coordinates, mapType string, zoom int, size string) ([]byte, error) {
	if mapType == "" {
		mapType = MapTypeRoadmap
	}
	if zoom <= 0 {
		zoom = 18
	}
	if size == "" {
		size = "600x600"
	}
	q := url.Values{}
	q.Set("center", strconv.FormatFloat(coords.Lat, 'f', -1, 64)+","+strconv.FormatFloat(coords.Lng, 'f', -1, 64))
	q.Set("zoom", strconv.Itoa(zoom))
	q.Set("size", size)
	q.Set("maptype", mapType)
	if c.APIKey != "" {
		q.Set("key", c.APIKey)
	}
	u := c.baseURL() + "/staticmap?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("static map status: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
