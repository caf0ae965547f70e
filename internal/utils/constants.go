package utils

import "time"

// Application Constants
const (
	AppName    = "Tiyeni"
	AppVersion = "1.0.0"

	DefaultCurrency = "MWK"
	DefaultTimeZone = "Africa/Blantyre"

	// Authentication
	JWTAccessTokenTTL = 24 * time.Hour
	PasswordMinLength = 6
	PasswordMaxLength = 128

	// Backend calls
	DefaultBackendTimeout = 10 * time.Second

	// File Upload
	MaxImageSize      = 5 * 1024 * 1024 // 5MB
	MaxImageDimension = 1280

	// Geocoding
	GeocodeMinQueryLength = 3
	GeocodeDefaultLimit   = 5
	GeocodeMaxLimit       = 20
	GeocodeDebounce       = 400 * time.Millisecond
	GeocodeCacheTTL       = 10 * time.Minute

	// Trips
	MaxTripNotesLength = 500
	MaxPlaceLength     = 120
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInvalidCredentials = "invalid credentials"
	ErrUserExists         = "user already exists"
	ErrInvalidToken       = "invalid token"
	ErrInternalServer     = "internal server error"
	ErrUnauthorized       = "authentication required"
	ErrForbidden          = "forbidden"
	ErrValidationFailed   = "validation failed"
	ErrFileUploadFailed   = "upload failed"
	ErrTripNotFound       = "trip not found"
	ErrVehicleNotFound    = "vehicle not found"
	ErrDriverNotFound     = "driver not found"
	ErrBookingNotFound    = "booking not found"
	ErrRouteNotFound      = "route not found"
	ErrSeatsUnavailable   = "not enough seats available"
	ErrInvalidTransition  = "invalid status transition"
)
