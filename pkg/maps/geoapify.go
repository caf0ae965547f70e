package maps

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

const defaultGeoapifyURL = "https://api.geoapify.com/v1/geocode/autocomplete"

type GeoapifyProvider struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

func NewGeoapifyProvider(apiKey, baseURL string, timeout time.Duration) *GeoapifyProvider {
	if baseURL == "" {
		baseURL = defaultGeoapifyURL
	}
	return &GeoapifyProvider{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

func (g *GeoapifyProvider) Name() string { return "geoapify" }

func (g *GeoapifyProvider) Autocomplete(ctx context.Context, text string, limit int) ([]Place, error) {
	params := url.Values{}
	params.Set("text", text)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("apiKey", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geoapify API error (%d): %s", resp.StatusCode, string(body))
	}

	var geoResp struct {
		Features []struct {
			Properties struct {
				Formatted string `json:"formatted"`
			} `json:"properties"`
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := json.Unmarshal(body, &geoResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	places := make([]Place, 0, len(geoResp.Features))
	for _, feature := range geoResp.Features {
		// coordinates are [lon, lat]
		if len(feature.Geometry.Coordinates) < 2 {
			continue
		}
		places = append(places, Place{
			Name: feature.Properties.Formatted,
			Lat:  feature.Geometry.Coordinates[1],
			Lon:  feature.Geometry.Coordinates[0],
		})
	}
	return places, nil
}
