package services

import (
	"tiyeni/internal/models"
	"tiyeni/internal/utils"
)

var routeCatalog = []models.Route{
	{
		ID:   "bt-ll-zalewa",
		Name: "Blantyre → Lilongwe (via Zalewa)",
		From: "Blantyre",
		To:   "Lilongwe",
		PickupPoints: []string{
			"Blantyre", "Kameza", "Lunzu", "Lilangwe", "Zalewa",
			"Chingeni", "Chikondi", "Ntcheu", "Dedza", "Lilongwe",
		},
	},
	{
		ID:   "ll-bt-zalewa",
		Name: "Lilongwe → Blantyre (via Zalewa)",
		From: "Lilongwe",
		To:   "Blantyre",
		PickupPoints: []string{
			"Lilongwe", "Dedza", "Ntcheu", "Chikondi", "Chingeni",
			"Zalewa", "Lilangwe", "Lunzu", "Kameza", "Blantyre",
		},
	},
	{
		ID:   "bt-ll-mango",
		Name: "Blantyre → Lilongwe (via Mangochi)",
		From: "Blantyre",
		To:   "Lilongwe",
		PickupPoints: []string{
			"Blantyre", "Njuli", "Thondwe", "Zomba", "Liwonde", "Mangochi Turnoff", "Lilongwe",
		},
	},
	{
		ID:   "ll-bt-mango",
		Name: "Lilongwe → Blantyre (via Mangochi)",
		From: "Lilongwe",
		To:   "Blantyre",
		PickupPoints: []string{
			"Lilongwe", "Mangochi Turnoff", "Liwonde", "Zomba", "Thondwe", "Njuli", "Blantyre",
		},
	},
	{
		ID:           "zm-bt",
		Name:         "Zomba → Blantyre",
		From:         "Zomba",
		To:           "Blantyre",
		PickupPoints: []string{"Zomba", "Njuli", "Blantyre"},
	},
	{
		ID:           "bt-zm",
		Name:         "Blantyre → Zomba",
		From:         "Blantyre",
		To:           "Zomba",
		PickupPoints: []string{"Blantyre", "Njuli", "Zomba"},
	},
}

type RouteService interface {
	ListRoutes() []*models.Route
	GetRoute(id string) (*models.Route, error)
	// RoutesThrough returns the routes that stop at place, in catalogue order.
	RoutesThrough(place string) []*models.Route
}

type routeService struct {
	routes []models.Route
	byID   map[string]int
}

func NewRouteService() RouteService {
	return newRouteService(routeCatalog)
}

func newRouteService(routes []models.Route) *routeService {
	s := &routeService{
		routes: routes,
		byID:   make(map[string]int, len(routes)),
	}
	for i, r := range routes {
		s.byID[r.ID] = i
	}
	return s
}

func (s *routeService) ListRoutes() []*models.Route {
	out := make([]*models.Route, len(s.routes))
	for i := range s.routes {
		out[i] = s.routes[i].Clone()
	}
	return out
}

func (s *routeService) GetRoute(id string) (*models.Route, error) {
	i, ok := s.byID[id]
	if !ok {
		return nil, utils.NewNotFoundError(utils.ErrRouteNotFound)
	}
	return s.routes[i].Clone(), nil
}

func (s *routeService) RoutesThrough(place string) []*models.Route {
	var out []*models.Route
	for i := range s.routes {
		if s.routes[i].HasPickupPoint(place) {
			out = append(out, s.routes[i].Clone())
		}
	}
	return out
}
