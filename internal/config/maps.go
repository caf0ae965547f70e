package config

import "time"

type MapsConfig struct {
	Provider   string            `yaml:"provider"`
	Timeout    time.Duration     `yaml:"timeout"`
	Geoapify   *GeoapifyConfig   `yaml:"geoapify"`
	GoogleMaps *GoogleMapsConfig `yaml:"google_maps"`
}

type GeoapifyConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type GoogleMapsConfig struct {
	APIKey string `yaml:"api_key"`
	// Country restricts autocomplete results, ISO 3166-1 alpha-2.
	Country string `yaml:"country"`
}

func loadMapsConfig() *MapsConfig {
	return &MapsConfig{
		Provider: getEnv("MAPS_PROVIDER", "geoapify"),
		Timeout:  getEnvAsDuration("MAPS_TIMEOUT", 5*time.Second),
		Geoapify: &GeoapifyConfig{
			APIKey:  getEnv("GEOAPIFY_API_KEY", ""),
			BaseURL: getEnv("GEOAPIFY_BASE_URL", "https://api.geoapify.com/v1/geocode/autocomplete"),
		},
		GoogleMaps: &GoogleMapsConfig{
			APIKey:  getEnv("GOOGLE_MAPS_API_KEY", ""),
			Country: getEnv("GOOGLE_MAPS_COUNTRY", "mw"),
		},
	}
}
