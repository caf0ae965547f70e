package services

import (
	"context"
	"testing"

	"tiyeni/internal/utils"
	"tiyeni/pkg/cache"
	"tiyeni/pkg/maps"
)

type countingProvider struct {
	calls     int
	lastLimit int
	err       error
}

func (p *countingProvider) Autocomplete(_ context.Context, text string, limit int) ([]maps.Place, error) {
	p.calls++
	p.lastLimit = limit
	if p.err != nil {
		return nil, p.err
	}
	return []maps.Place{{Name: text + ", Malawi", Lat: -15.38, Lon: 35.33}}, nil
}

func (p *countingProvider) Name() string { return "counting" }

func TestGeocodeShortQuerySkipsProvider(t *testing.T) {
	provider := &countingProvider{}
	geocode := NewGeocodeService(provider, cache.NewMemoryCache(), nil)

	for _, text := range []string{"", "Zo", "  Zo  "} {
		places, err := geocode.Search(context.Background(), text, 5)
		if err != nil || len(places) != 0 {
			t.Fatalf("Search(%q) = %v, %v", text, places, err)
		}
	}
	if provider.calls != 0 {
		t.Fatalf("provider called %d times", provider.calls)
	}
}

func TestGeocodeCachesResults(t *testing.T) {
	provider := &countingProvider{}
	geocode := NewGeocodeService(provider, cache.NewMemoryCache(), nil)
	ctx := context.Background()

	first, err := geocode.Search(ctx, "Zomba", 0)
	if err != nil || len(first) != 1 {
		t.Fatalf("Search: %v, %v", first, err)
	}
	if provider.lastLimit != utils.GeocodeDefaultLimit {
		t.Fatalf("default limit = %d", provider.lastLimit)
	}

	second, _ := geocode.Search(ctx, "zomba", 0)
	if provider.calls != 1 || second[0].Name != first[0].Name {
		t.Fatalf("cached search hit the provider: calls = %d", provider.calls)
	}

	_, _ = geocode.Search(ctx, "Zomba", 500)
	if provider.lastLimit != utils.GeocodeMaxLimit {
		t.Fatalf("limit not capped: %d", provider.lastLimit)
	}
}

func TestGeocodeProviderFailure(t *testing.T) {
	provider := &countingProvider{err: errStoreDown}
	geocode := NewGeocodeService(provider, nil, nil)

	_, err := geocode.Search(context.Background(), "Blantyre", 5)
	if !utils.HasCode(err, utils.CodeBackendReadFailed) {
		t.Fatalf("err = %v", err)
	}
}
