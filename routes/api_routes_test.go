package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"tiyeni/internal/handlers"
	"tiyeni/internal/models"
	"tiyeni/internal/services"
	"tiyeni/internal/utils"
)

type stubAuth struct {
	services.AuthService
}

func (stubAuth) Authenticate(_ context.Context, token string) (*models.Session, error) {
	if token != "driver-token" {
		return nil, utils.NewAuthRequiredError()
	}
	return &models.Session{UID: "driver-1", Role: models.UserRoleDriver}, nil
}

type stubTrips struct {
	services.TripService
	existing *models.Trip
	session  *models.Session
}

func (s *stubTrips) CreateTrip(_ context.Context, session *models.Session, _ *services.CreateTripRequest) (*models.Trip, bool, error) {
	s.session = session
	if s.existing != nil {
		return s.existing, false, nil
	}
	return &models.Trip{RouteID: "zm-bt", Status: models.TripStatusNotStarted}, true, nil
}

func (s *stubTrips) GetTrip(_ context.Context, tripID string) (*models.Trip, error) {
	if tripID == "retry" {
		return nil, utils.NewBackendReadError("trip", errors.New("timeout"))
	}
	return nil, utils.NewNotFoundError(utils.ErrTripNotFound)
}

func (s *stubTrips) AdvanceStatus(context.Context, *models.Session, string, models.TripStatus) (*models.Trip, error) {
	return nil, utils.NewValidationError(utils.ErrInvalidTransition)
}

type apiBody struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Meta   *utils.Meta     `json:"meta"`
	Error  *utils.APIError `json:"error"`
}

func newRouter(trips *stubTrips, checks map[string]handlers.HealthCheck) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupAPIRoutes(r, &Handlers{
		Auth:    handlers.NewAuthHandler(nil),
		Route:   handlers.NewRouteHandler(services.NewRouteService()),
		Driver:  handlers.NewDriverHandler(nil),
		Vehicle: handlers.NewVehicleHandler(nil),
		Trip:    handlers.NewTripHandler(trips),
		Booking: handlers.NewBookingHandler(nil),
		Geocode: handlers.NewGeocodeHandler(nil),
		Health:  handlers.NewHealthHandler(checks),
	}, stubAuth{})
	return r
}

func do(t *testing.T, r http.Handler, method, path, token, body string) (int, apiBody) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded apiBody
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return w.Code, decoded
}

func TestListRoutes(t *testing.T) {
	r := newRouter(&stubTrips{}, nil)

	code, body := do(t, r, http.MethodGet, "/api/v1/routes", "", "")
	if code != http.StatusOK || body.Meta == nil || body.Meta.Count != 6 {
		t.Fatalf("code = %d, meta = %+v", code, body.Meta)
	}

	_, body = do(t, r, http.MethodGet, "/api/v1/routes?through=Njuli", "", "")
	if body.Meta.Count != 4 {
		t.Fatalf("routes through Njuli = %d, want 4", body.Meta.Count)
	}

	code, body = do(t, r, http.MethodGet, "/api/v1/routes/nowhere", "", "")
	if code != http.StatusNotFound || body.Error.Code != string(utils.CodeNotFound) {
		t.Fatalf("code = %d, error = %+v", code, body.Error)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newRouter(&stubTrips{}, nil)

	for _, token := range []string{"", "stale"} {
		code, body := do(t, r, http.MethodPost, "/api/v1/trips", token, `{}`)
		if code != http.StatusUnauthorized || body.Error.Code != string(utils.CodeAuthRequired) {
			t.Fatalf("token %q: code = %d, error = %+v", token, code, body.Error)
		}
	}
}

func TestCreateTripStatusCodes(t *testing.T) {
	trips := &stubTrips{}
	r := newRouter(trips, nil)

	code, body := do(t, r, http.MethodPost, "/api/v1/trips", "driver-token", `{"seats":2}`)
	if code != http.StatusCreated {
		t.Fatalf("code = %d, want 201", code)
	}
	if trips.session == nil || trips.session.UID != "driver-1" {
		t.Fatalf("session = %+v", trips.session)
	}
	var created struct {
		Created bool `json:"created"`
	}
	_ = json.Unmarshal(body.Data, &created)
	if !created.Created {
		t.Fatalf("data = %s", body.Data)
	}

	trips.existing = &models.Trip{RouteID: "bt-zm", Status: models.TripStatusOnRoute}
	code, body = do(t, r, http.MethodPost, "/api/v1/trips", "driver-token", `{"seats":2}`)
	if code != http.StatusOK {
		t.Fatalf("code = %d, want 200 for existing trip", code)
	}
	_ = json.Unmarshal(body.Data, &created)
	if created.Created {
		t.Fatalf("existing trip reported as created")
	}

	code, _ = do(t, r, http.MethodPost, "/api/v1/trips", "driver-token", `not json`)
	if code != http.StatusBadRequest {
		t.Fatalf("code = %d for malformed body", code)
	}
}

func TestErrorEnvelope(t *testing.T) {
	r := newRouter(&stubTrips{}, nil)

	code, body := do(t, r, http.MethodGet, "/api/v1/trips/retry", "", "")
	if code != http.StatusServiceUnavailable || !body.Error.Retryable {
		t.Fatalf("code = %d, error = %+v", code, body.Error)
	}

	code, body = do(t, r, http.MethodPut, "/api/v1/trips/abc/status", "driver-token", `{"status":"COMPLETED"}`)
	if code != http.StatusBadRequest || body.Error.Message != utils.ErrInvalidTransition {
		t.Fatalf("code = %d, error = %+v", code, body.Error)
	}

	code, body = do(t, r, http.MethodGet, "/api/v1/trips", "", "")
	if code != http.StatusBadRequest || body.Error.Details["route_id"] == "" {
		t.Fatalf("missing route_id: code = %d, error = %+v", code, body.Error)
	}
}

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	code, _ := do(t, newRouter(&stubTrips{}, map[string]handlers.HealthCheck{"mongodb": ok}), http.MethodGet, "/health", "", "")
	if code != http.StatusOK {
		t.Fatalf("healthy code = %d", code)
	}

	r := newRouter(&stubTrips{}, map[string]handlers.HealthCheck{"mongodb": ok, "redis": down})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "degraded") {
		t.Fatalf("degraded code = %d, body = %s", w.Code, w.Body.String())
	}
}
