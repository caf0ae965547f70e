package handlers

import (
	"github.com/gin-gonic/gin"

	"tiyeni/internal/middleware"
	"tiyeni/internal/services"
	"tiyeni/internal/utils"
)

type DriverHandler struct {
	driverService services.DriverService
}

func NewDriverHandler(driverService services.DriverService) *DriverHandler {
	return &DriverHandler{driverService: driverService}
}

func (h *DriverHandler) RegisterDriver(c *gin.Context) {
	var request services.RegisterDriverRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	driver, err := h.driverService.RegisterDriver(c.Request.Context(), middleware.GetSession(c), &request)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Driver registered", driver)
}

func (h *DriverHandler) GetProfile(c *gin.Context) {
	driver, err := h.driverService.GetDriver(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Driver retrieved", driver)
}
