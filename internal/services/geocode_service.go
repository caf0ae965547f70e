package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"tiyeni/internal/utils"
	"tiyeni/pkg/cache"
	"tiyeni/pkg/logger"
	"tiyeni/pkg/maps"
)

type GeocodeService interface {
	// Search returns no places, and skips the provider, for text shorter
	// than three characters.
	Search(ctx context.Context, text string, limit int) ([]maps.Place, error)
}

type geocodeService struct {
	provider maps.AutocompleteProvider
	cache    cache.Cache
	ttl      time.Duration
	logger   *logger.Logger
}

func NewGeocodeService(provider maps.AutocompleteProvider, c cache.Cache, log *logger.Logger) GeocodeService {
	if log == nil {
		log = logger.NewNop()
	}
	return &geocodeService{
		provider: provider,
		cache:    c,
		ttl:      utils.GeocodeCacheTTL,
		logger:   log,
	}
}

func (s *geocodeService) Search(ctx context.Context, text string, limit int) ([]maps.Place, error) {
	text = strings.TrimSpace(text)
	if len([]rune(text)) < utils.GeocodeMinQueryLength {
		return []maps.Place{}, nil
	}
	if limit <= 0 {
		limit = utils.GeocodeDefaultLimit
	}
	if limit > utils.GeocodeMaxLimit {
		limit = utils.GeocodeMaxLimit
	}

	key := s.cacheKey(text, limit)
	var cached []maps.Place
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	places, err := s.provider.Autocomplete(ctx, text, limit)
	if err != nil {
		s.logger.WithError(err).WithField("provider", s.provider.Name()).Warn("geocode autocomplete failed")
		return nil, utils.NewBackendReadError("place search failed", err)
	}
	if places == nil {
		places = []maps.Place{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, places, s.ttl); err != nil {
			s.logger.WithError(err).Debug("failed to cache geocode results")
		}
	}
	return places, nil
}

func (s *geocodeService) cacheKey(text string, limit int) string {
	sum := sha1.Sum([]byte(strings.ToLower(text)))
	return fmt.Sprintf("geocode:%s:%s:%d", s.provider.Name(), hex.EncodeToString(sum[:]), limit)
}
