package maps

import "context"

// AutocompleteProvider turns partial place text into suggestions.
type AutocompleteProvider interface {
	Autocomplete(ctx context.Context, text string, limit int) ([]Place, error)
	Name() string
}

// Place is a single autocomplete suggestion.
type Place struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}
