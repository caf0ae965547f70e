package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

type GoogleMapsProvider struct {
	client  *maps.Client
	country string
}

func NewGoogleMapsProvider(apiKey, country string) (*GoogleMapsProvider, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return &GoogleMapsProvider{
		client:  client,
		country: country,
	}, nil
}

func (g *GoogleMapsProvider) Name() string { return "google" }

// Autocomplete uses Places text search, which returns coordinates in the
// same call, unlike the prediction endpoint.
func (g *GoogleMapsProvider) Autocomplete(ctx context.Context, text string, limit int) ([]Place, error) {
	resp, err := g.client.TextSearch(ctx, &maps.TextSearchRequest{
		Query:  text,
		Region: g.country,
	})
	if err != nil {
		return nil, fmt.Errorf("places search failed: %w", err)
	}

	places := make([]Place, 0, limit)
	for _, result := range resp.Results {
		if len(places) == limit {
			break
		}
		name := result.FormattedAddress
		if name == "" {
			name = result.Name
		}
		places = append(places, Place{
			Name: name,
			Lat:  result.Geometry.Location.Lat,
			Lon:  result.Geometry.Location.Lng,
		})
	}
	return places, nil
}
