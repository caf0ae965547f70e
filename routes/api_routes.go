package routes

import (
	"github.com/gin-gonic/gin"

	"tiyeni/internal/handlers"
	"tiyeni/internal/middleware"
	"tiyeni/internal/services"
)

// Handlers groups every HTTP handler the API serves.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Route   *handlers.RouteHandler
	Driver  *handlers.DriverHandler
	Vehicle *handlers.VehicleHandler
	Trip    *handlers.TripHandler
	Booking *handlers.BookingHandler
	Geocode *handlers.GeocodeHandler
	Health  *handlers.HealthHandler
}

// SetupAPIRoutes mounts the /api/v1 routes on r.
func SetupAPIRoutes(r *gin.Engine, h *Handlers, authService services.AuthService) {
	r.GET("/health", h.Health.Health)

	api := r.Group("/api/v1")
	authRequired := middleware.AuthRequired(authService)

	auth := api.Group("/auth")
	{
		auth.POST("/signup", h.Auth.SignUp)
		auth.POST("/signin", h.Auth.SignIn)
		auth.POST("/signout", authRequired, h.Auth.SignOut)
	}

	// Route catalogue and place search are public.
	api.GET("/routes", h.Route.ListRoutes)
	api.GET("/routes/:id", h.Route.GetRoute)
	api.GET("/geocode/autocomplete", h.Geocode.Autocomplete)

	drivers := api.Group("/drivers", authRequired)
	{
		drivers.POST("", h.Driver.RegisterDriver)
		drivers.GET("/me", h.Driver.GetProfile)
	}

	vehicles := api.Group("/vehicles", authRequired)
	{
		vehicles.GET("", h.Vehicle.ListVehicles)
		vehicles.POST("", h.Vehicle.AddVehicle)
		vehicles.GET("/default", h.Vehicle.GetDefaultVehicle)
		vehicles.DELETE("/:id", h.Vehicle.DeleteVehicle)
		vehicles.PUT("/:id/default", h.Vehicle.SetDefaultVehicle)
	}

	trips := api.Group("/trips")
	{
		trips.GET("", h.Trip.ListAvailableTrips)
		trips.GET("/mine", authRequired, h.Trip.ListMyTrips)
		trips.GET("/:id", h.Trip.GetTrip)
		trips.POST("", authRequired, h.Trip.CreateTrip)
		trips.PUT("/:id/status", authRequired, h.Trip.UpdateStatus)
		trips.PUT("/:id/milestone", authRequired, h.Trip.AdvanceMilestone)

		trips.GET("/:id/bookings", authRequired, h.Booking.ListBookings)
		trips.POST("/:id/bookings", authRequired, h.Booking.BookSeats)
		trips.DELETE("/:id/bookings/:booking_id", authRequired, h.Booking.CancelBooking)
	}
}
