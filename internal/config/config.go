package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App       *AppConfig       `yaml:"app"`
	Database  *DatabaseConfig  `yaml:"database"`
	Redis     *RedisConfig     `yaml:"redis"`
	Auth      *AuthConfig      `yaml:"auth"`
	Maps      *MapsConfig      `yaml:"maps"`
	Storage   *StorageConfig   `yaml:"storage"`
	WebSocket *WebSocketConfig `yaml:"websocket"`
	Security  *SecurityConfig  `yaml:"security"`
}

type AppConfig struct {
	Name           string        `yaml:"name"`
	Version        string        `yaml:"version"`
	Environment    string        `yaml:"environment"`
	Port           int           `yaml:"port"`
	Host           string        `yaml:"host"`
	Debug          bool          `yaml:"debug"`
	LogLevel       string        `yaml:"log_level"`
	LogFormat      string        `yaml:"log_format"`
	LogOutput      string        `yaml:"log_output"`
	BackendTimeout time.Duration `yaml:"backend_timeout"`
	EventBus       string        `yaml:"event_bus"` // memory, redis
}

type SecurityConfig struct {
	JWTSecret          string        `yaml:"jwt_secret"`
	JWTAccessTokenTTL  time.Duration `yaml:"jwt_access_token_ttl"`
	PasswordMinLength  int           `yaml:"password_min_length"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	TrustedProxies     []string      `yaml:"trusted_proxies"`
}

func Load() (*Config, error) {
	config := &Config{
		App:       loadAppConfig(),
		Database:  loadDatabaseConfig(),
		Redis:     loadRedisConfig(),
		Auth:      loadAuthConfig(),
		Maps:      loadMapsConfig(),
		Storage:   loadStorageConfig(),
		WebSocket: loadWebSocketConfig(),
		Security:  loadSecurityConfig(),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects combinations that would only fail later at first use.
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("invalid APP_PORT %d", c.App.Port)
	}
	switch c.App.EventBus {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown EVENT_BUS %q", c.App.EventBus)
	}
	switch c.Auth.Provider {
	case "local":
		if c.Security.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required for the local auth provider")
		}
	case "firebase":
		if c.Auth.Firebase.ProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required for the firebase auth provider")
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.Auth.Provider)
	}
	switch c.Storage.Provider {
	case "local", "aws", "gcp":
	default:
		return fmt.Errorf("unknown STORAGE_PROVIDER %q", c.Storage.Provider)
	}
	switch c.Maps.Provider {
	case "geoapify", "google":
	default:
		return fmt.Errorf("unknown MAPS_PROVIDER %q", c.Maps.Provider)
	}
	return nil
}

func loadAppConfig() *AppConfig {
	return &AppConfig{
		Name:           getEnv("APP_NAME", "Tiyeni"),
		Version:        getEnv("APP_VERSION", "1.0.0"),
		Environment:    getEnv("APP_ENV", "development"),
		Port:           getEnvAsInt("APP_PORT", 8080),
		Host:           getEnv("APP_HOST", "0.0.0.0"),
		Debug:          getEnvAsBool("APP_DEBUG", false),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		LogOutput:      getEnv("LOG_OUTPUT", "stdout"),
		BackendTimeout: getEnvAsDuration("BACKEND_TIMEOUT", 10*time.Second),
		EventBus:       getEnv("EVENT_BUS", "redis"),
	}
}

func loadSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTAccessTokenTTL:  getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 24*time.Hour),
		PasswordMinLength:  getEnvAsInt("PASSWORD_MIN_LENGTH", 6),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

func IsProduction() bool {
	return getEnv("APP_ENV", "development") == "production"
}
