package handlers

import (
	"github.com/gin-gonic/gin"

	"tiyeni/internal/middleware"
	"tiyeni/internal/models"
	"tiyeni/internal/services"
	"tiyeni/internal/utils"
)

type TripHandler struct {
	tripService services.TripService
}

func NewTripHandler(tripService services.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

type createTripResponse struct {
	Trip    *models.Trip `json:"trip"`
	Created bool         `json:"created"`
}

// CreateTrip answers 201 for a new trip and 200 with the driver's existing
// active trip otherwise.
func (h *TripHandler) CreateTrip(c *gin.Context) {
	var request services.CreateTripRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	trip, created, err := h.tripService.CreateTrip(c.Request.Context(), middleware.GetSession(c), &request)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	response := createTripResponse{Trip: trip, Created: created}
	if !created {
		utils.SuccessResponse(c, "You already have an active trip", response)
		return
	}
	utils.CreatedResponse(c, "Trip created", response)
}

func (h *TripHandler) ListAvailableTrips(c *gin.Context) {
	routeID := c.Query("route_id")
	if routeID == "" {
		utils.ValidationErrorResponse(c, map[string]string{"route_id": "This field is required"})
		return
	}

	trips, err := h.tripService.ListAvailableTrips(c.Request.Context(), routeID, c.Query("pickup"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessListResponse(c, "Trips retrieved", trips, len(trips))
}

func (h *TripHandler) ListMyTrips(c *gin.Context) {
	trips, err := h.tripService.ListDriverTrips(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessListResponse(c, "Trips retrieved", trips, len(trips))
}

func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Trip retrieved", trip)
}

type updateStatusRequest struct {
	Status models.TripStatus `json:"status" binding:"required"`
}

func (h *TripHandler) UpdateStatus(c *gin.Context) {
	var request updateStatusRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	trip, err := h.tripService.AdvanceStatus(c.Request.Context(), middleware.GetSession(c), c.Param("id"), request.Status)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Trip status updated", trip)
}

func (h *TripHandler) AdvanceMilestone(c *gin.Context) {
	trip, err := h.tripService.AdvanceMilestone(c.Request.Context(), middleware.GetSession(c), c.Param("id"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Milestone reached", trip)
}
