package validators

import "testing"

type sample struct {
	ID       string `json:"id" validate:"required,object_id"`
	Place    string `json:"waiting_place" validate:"not_blank"`
	Type     string `json:"type" validate:"vehicle_type"`
	Gender   string `json:"preferred_gender" validate:"preferred_gender"`
	Category string `json:"driver_category" validate:"driver_category"`
	Seats    int    `json:"seats" validate:"gt=0"`
}

func TestValidateStructOK(t *testing.T) {
	s := sample{
		ID:       "65a1b2c3d4e5f60718293a4b",
		Place:    "Chilomoni",
		Type:     "Minibus",
		Category: "company",
		Seats:    3,
	}
	if errs := ValidateStruct(s); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestValidateStructReportsJSONNames(t *testing.T) {
	s := sample{
		ID:       "nope",
		Place:    "   ",
		Type:     "Truck",
		Gender:   "OTHER",
		Category: "fleet",
		Seats:    0,
	}
	got := ValidateStruct(s).Map()

	for _, field := range []string{"id", "waiting_place", "type", "preferred_gender", "driver_category", "seats"} {
		if _, ok := got[field]; !ok {
			t.Fatalf("missing error for %s in %v", field, got)
		}
	}
	if got["waiting_place"] != "waiting_place is required" {
		t.Fatalf("waiting_place message = %q", got["waiting_place"])
	}
}
