package handlers

import (
	"github.com/gin-gonic/gin"

	"tiyeni/internal/middleware"
	"tiyeni/internal/services"
	"tiyeni/internal/utils"
)

type BookingHandler struct {
	bookingService services.BookingService
}

func NewBookingHandler(bookingService services.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

func (h *BookingHandler) BookSeats(c *gin.Context) {
	var request services.BookSeatsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	booking, err := h.bookingService.BookSeats(c.Request.Context(), middleware.GetSession(c), c.Param("id"), &request)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Seats booked", booking)
}

func (h *BookingHandler) ListBookings(c *gin.Context) {
	bookings, err := h.bookingService.ListBookings(c.Request.Context(), middleware.GetSession(c), c.Param("id"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessListResponse(c, "Bookings retrieved", bookings, len(bookings))
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	booking, err := h.bookingService.CancelBooking(c.Request.Context(), middleware.GetSession(c), c.Param("id"), c.Param("booking_id"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Booking cancelled", booking)
}
