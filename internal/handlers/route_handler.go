package handlers

import (
	"github.com/gin-gonic/gin"

	"tiyeni/internal/services"
	"tiyeni/internal/utils"
)

type RouteHandler struct {
	routeService services.RouteService
}

func NewRouteHandler(routeService services.RouteService) *RouteHandler {
	return &RouteHandler{routeService: routeService}
}

// ListRoutes returns the catalogue, or only routes stopping at ?through=.
func (h *RouteHandler) ListRoutes(c *gin.Context) {
	routes := h.routeService.ListRoutes()
	if place := c.Query("through"); place != "" {
		routes = h.routeService.RoutesThrough(place)
	}
	utils.SuccessListResponse(c, "Routes retrieved", routes, len(routes))
}

func (h *RouteHandler) GetRoute(c *gin.Context) {
	route, err := h.routeService.GetRoute(c.Param("id"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Route retrieved", route)
}
