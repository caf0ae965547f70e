package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"tiyeni/internal/services"
	"tiyeni/internal/utils"
)

type GeocodeHandler struct {
	geocodeService services.GeocodeService
}

func NewGeocodeHandler(geocodeService services.GeocodeService) *GeocodeHandler {
	return &GeocodeHandler{geocodeService: geocodeService}
}

func (h *GeocodeHandler) Autocomplete(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	places, err := h.geocodeService.Search(c.Request.Context(), c.Query("text"), limit)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessListResponse(c, "Places retrieved", places, len(places))
}
