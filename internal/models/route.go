package models

// Route is a fixed intercity path. PickupPoints are in travel order; a trip's
// MilestoneIndex points into this slice.
type Route struct {
	ID           string   `json:"id" bson:"id"`
	Name         string   `json:"name" bson:"name"`
	From         string   `json:"from" bson:"from"`
	To           string   `json:"to" bson:"to"`
	PickupPoints []string `json:"pickup_points" bson:"pickup_points"`
}

// HasPickupPoint reports whether place is one of the route's stops.
func (r *Route) HasPickupPoint(place string) bool {
	for _, p := range r.PickupPoints {
		if p == place {
			return true
		}
	}
	return false
}

// LastMilestone is the index of the final pickup point.
func (r *Route) LastMilestone() int {
	if len(r.PickupPoints) == 0 {
		return 0
	}
	return len(r.PickupPoints) - 1
}

func (r *Route) Clone() *Route {
	points := make([]string, len(r.PickupPoints))
	copy(points, r.PickupPoints)
	return &Route{
		ID:           r.ID,
		Name:         r.Name,
		From:         r.From,
		To:           r.To,
		PickupPoints: points,
	}
}
