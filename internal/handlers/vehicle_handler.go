package handlers

import (
	"github.com/gin-gonic/gin"

	"tiyeni/internal/middleware"
	"tiyeni/internal/services"
	"tiyeni/internal/utils"
)

type VehicleHandler struct {
	vehicleService services.VehicleService
}

func NewVehicleHandler(vehicleService services.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService}
}

func (h *VehicleHandler) AddVehicle(c *gin.Context) {
	var request services.AddVehicleRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	vehicle, err := h.vehicleService.AddVehicle(c.Request.Context(), middleware.GetSession(c), &request)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Vehicle added", vehicle)
}

func (h *VehicleHandler) ListVehicles(c *gin.Context) {
	vehicles, err := h.vehicleService.ListVehicles(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessListResponse(c, "Vehicles retrieved", vehicles, len(vehicles))
}

func (h *VehicleHandler) GetDefaultVehicle(c *gin.Context) {
	vehicle, err := h.vehicleService.GetDefaultVehicle(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Default vehicle retrieved", vehicle)
}

func (h *VehicleHandler) DeleteVehicle(c *gin.Context) {
	if err := h.vehicleService.DeleteVehicle(c.Request.Context(), middleware.GetSession(c), c.Param("id")); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.NoContentResponse(c)
}

func (h *VehicleHandler) SetDefaultVehicle(c *gin.Context) {
	if err := h.vehicleService.SetDefaultVehicle(c.Request.Context(), middleware.GetSession(c), c.Param("id")); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Default vehicle updated", nil)
}
