package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"tiyeni/internal/models"
	"tiyeni/internal/repositories/interfaces"
	"tiyeni/pkg/pubsub"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeTx runs transactions one at a time and restores the store when fn
// fails.
type fakeTx struct {
	store *fakeStore
	mu    sync.Mutex
	calls atomic.Int64
}

func (tx *fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.calls.Add(1)

	snapshot := tx.store.snapshot()
	if err := fn(ctx); err != nil {
		tx.store.restore(snapshot)
		return err
	}
	return nil
}

// fakeStore backs every fake repository with one lock, like a single
// document store.
type fakeStore struct {
	mu       sync.Mutex
	vehicles map[primitive.ObjectID]models.Vehicle
	trips    map[primitive.ObjectID]models.Trip
	bookings map[primitive.ObjectID]models.Booking
	drivers  map[string]models.Driver
	users    map[string]models.User
	seq      time.Duration

	failBookingCreate error
	failReads         error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		vehicles: make(map[primitive.ObjectID]models.Vehicle),
		trips:    make(map[primitive.ObjectID]models.Trip),
		bookings: make(map[primitive.ObjectID]models.Booking),
		drivers:  make(map[string]models.Driver),
		users:    make(map[string]models.User),
	}
}

func (s *fakeStore) snapshot() *fakeStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := newFakeStore()
	for k, v := range s.vehicles {
		c.vehicles[k] = v
	}
	for k, v := range s.trips {
		c.trips[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.drivers {
		c.drivers[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

func (s *fakeStore) restore(from *fakeStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles = from.vehicles
	s.trips = from.trips
	s.bookings = from.bookings
	s.drivers = from.drivers
	s.users = from.users
}

// tick orders records created within the same test clock instant.
func (s *fakeStore) tick(t time.Time) time.Time {
	s.seq++
	return t.Add(s.seq * time.Millisecond)
}

type fakeVehicleRepo struct{ *fakeStore }

func (r fakeVehicleRepo) Create(_ context.Context, v *models.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.IsDefault {
		for _, other := range r.vehicles {
			if other.DriverID == v.DriverID && other.IsDefault {
				return interfaces.ErrDuplicate
			}
		}
	}
	v.ID = primitive.NewObjectID()
	v.CreatedAt = r.tick(v.CreatedAt)
	r.vehicles[v.ID] = *v
	return nil
}

func (r fakeVehicleRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &v, nil
}

func (r fakeVehicleRepo) Delete(_ context.Context, driverID string, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[id]
	if !ok || v.DriverID != driverID {
		return interfaces.ErrNotFound
	}
	delete(r.vehicles, id)
	return nil
}

func (r fakeVehicleRepo) ListByDriver(_ context.Context, driverID string) ([]*models.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Vehicle
	for _, v := range r.vehicles {
		if v.DriverID == driverID {
			v := v
			out = append(out, &v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r fakeVehicleRepo) CountByDriver(ctx context.Context, driverID string) (int64, error) {
	list, err := r.ListByDriver(ctx, driverID)
	return int64(len(list)), err
}

func (r fakeVehicleRepo) GetDefault(_ context.Context, driverID string) (*models.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.vehicles {
		if v.DriverID == driverID && v.IsDefault {
			return &v, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r fakeVehicleRepo) SetDefault(_ context.Context, driverID string, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.vehicles[id]
	if !ok || target.DriverID != driverID {
		return interfaces.ErrNotFound
	}
	for vid, v := range r.vehicles {
		if v.DriverID == driverID {
			v.IsDefault = vid == id
			r.vehicles[vid] = v
		}
	}
	return nil
}

type fakeTripRepo struct{ *fakeStore }

func (r fakeTripRepo) Create(_ context.Context, t *models.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.IsActive = t.Status.IsActive()
	if t.IsActive {
		for _, other := range r.trips {
			if other.DriverID == t.DriverID && other.IsActive {
				return interfaces.ErrActiveTripExists
			}
		}
	}
	t.ID = primitive.NewObjectID()
	r.trips[t.ID] = *t
	return nil
}

func (r fakeTripRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failReads != nil {
		return nil, r.failReads
	}
	t, ok := r.trips[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &t, nil
}

func (r fakeTripRepo) FindActiveByDriver(_ context.Context, driverID string) (*models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.trips {
		if t.DriverID == driverID && t.IsActive {
			return &t, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r fakeTripRepo) ListByDriver(_ context.Context, driverID string, limit int64) ([]*models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Trip
	for _, t := range r.trips {
		if t.DriverID == driverID {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListAvailable filters on route and status only, so the service's seat
// filter is what hides full trips.
func (r fakeTripRepo) ListAvailable(_ context.Context, routeID string) ([]*models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failReads != nil {
		return nil, r.failReads
	}
	var out []*models.Trip
	for _, t := range r.trips {
		if t.RouteID == routeID && t.Status.IsActive() {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartureTime.Before(out[j].DepartureTime) })
	return out, nil
}

func (r fakeTripRepo) update(id primitive.ObjectID, apply func(t *models.Trip) bool) (*models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trips[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	if !apply(&t) {
		return nil, interfaces.ErrConditionFailed
	}
	t.IsActive = t.Status.IsActive()
	r.trips[id] = t
	return &t, nil
}

func (r fakeTripRepo) TransitionStatus(_ context.Context, id primitive.ObjectID, from, to models.TripStatus) (*models.Trip, error) {
	return r.update(id, func(t *models.Trip) bool {
		if t.Status != from {
			return false
		}
		t.Status = to
		return true
	})
}

func (r fakeTripRepo) AdvanceMilestone(_ context.Context, id primitive.ObjectID, lastIndex int) (*models.Trip, error) {
	return r.update(id, func(t *models.Trip) bool {
		if t.Status != models.TripStatusOnRoute || t.MilestoneIndex >= lastIndex {
			return false
		}
		t.MilestoneIndex++
		return true
	})
}

func (r fakeTripRepo) ReserveSeats(_ context.Context, id primitive.ObjectID, seats int) (*models.Trip, error) {
	return r.update(id, func(t *models.Trip) bool {
		if !t.Status.IsActive() || t.AvailableSeats < seats {
			return false
		}
		t.AvailableSeats -= seats
		return true
	})
}

func (r fakeTripRepo) ReleaseSeats(_ context.Context, id primitive.ObjectID, seats int) (*models.Trip, error) {
	return r.update(id, func(t *models.Trip) bool {
		if !t.Status.IsActive() {
			return false
		}
		t.AvailableSeats += seats
		if t.AvailableSeats > t.TotalSeats {
			t.AvailableSeats = t.TotalSeats
		}
		return true
	})
}

type fakeBookingRepo struct{ *fakeStore }

func (r fakeBookingRepo) Create(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failBookingCreate != nil {
		return r.failBookingCreate
	}
	b.ID = primitive.NewObjectID()
	b.CreatedAt = r.tick(b.CreatedAt)
	r.bookings[b.ID] = *b
	return nil
}

func (r fakeBookingRepo) GetByID(_ context.Context, tripID, id primitive.ObjectID) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.TripID != tripID {
		return nil, interfaces.ErrNotFound
	}
	return &b, nil
}

func (r fakeBookingRepo) ListByTrip(_ context.Context, tripID primitive.ObjectID) ([]*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Booking
	for _, b := range r.bookings {
		if b.TripID == tripID {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r fakeBookingRepo) Cancel(_ context.Context, tripID, id primitive.ObjectID, at time.Time) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.TripID != tripID {
		return nil, interfaces.ErrNotFound
	}
	if b.Status != models.BookingStatusActive {
		return nil, interfaces.ErrConditionFailed
	}
	b.Status = models.BookingStatusCancelled
	b.CancelledAt = &at
	r.bookings[id] = b
	return &b, nil
}

type fakeDriverRepo struct{ *fakeStore }

func (r fakeDriverRepo) Upsert(_ context.Context, d *models.Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers[d.UID] = *d
	return nil
}

func (r fakeDriverRepo) GetByUID(_ context.Context, uid string) (*models.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drivers[uid]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &d, nil
}

type fakeUserRepo struct{ *fakeStore }

func (r fakeUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.users {
		if other.UID == u.UID || other.Email == u.Email {
			return interfaces.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	r.users[u.UID] = *u
	return nil
}

func (r fakeUserRepo) GetByUID(_ context.Context, uid string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[uid]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &u, nil
}

func (r fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r fakeUserRepo) UpdateRole(_ context.Context, uid string, role models.UserRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[uid]
	if !ok {
		return interfaces.ErrNotFound
	}
	u.Role = role
	r.users[uid] = u
	return nil
}

var errStoreDown = errors.New("store unavailable")

var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// testEnv wires every service against one fake store and an in-memory bus.
type testEnv struct {
	store    *fakeStore
	tx       *fakeTx
	bus      *pubsub.MemoryBus
	routes   RouteService
	vehicles VehicleService
	trips    TripService
	bookings BookingService
}

func newTestEnv() *testEnv {
	store := newFakeStore()
	tx := &fakeTx{store: store}
	bus := pubsub.NewMemoryBus()
	deps := Deps{Tx: tx, Bus: bus, Clock: fixedClock, Timeout: time.Second}
	routes := NewRouteService()

	return &testEnv{
		store:    store,
		tx:       tx,
		bus:      bus,
		routes:   routes,
		vehicles: NewVehicleService(deps, fakeVehicleRepo{store}, nil),
		trips:    NewTripService(deps, fakeTripRepo{store}, fakeVehicleRepo{store}, fakeDriverRepo{store}, fakeUserRepo{store}, routes),
		bookings: NewBookingService(deps, fakeBookingRepo{store}, fakeTripRepo{store}, fakeUserRepo{store}),
	}
}

func session(uid string) *models.Session {
	return &models.Session{UID: uid, Role: models.UserRoleDriver}
}

// seedVehicle stores a vehicle directly and returns its id.
func (e *testEnv) seedVehicle(driverID string, seats int, isDefault bool) primitive.ObjectID {
	v := &models.Vehicle{
		DriverID:  driverID,
		Type:      models.VehicleTypeCar,
		Color:     "Silver",
		Seats:     seats,
		IsDefault: isDefault,
		CreatedAt: testNow,
	}
	_ = fakeVehicleRepo{e.store}.Create(context.Background(), v)
	return v.ID
}

// seedTrip stores a trip directly, bypassing CreateTrip's checks.
func (e *testEnv) seedTrip(driverID, routeID string, status models.TripStatus, available, total int) *models.Trip {
	t := &models.Trip{
		DriverID:       driverID,
		RouteID:        routeID,
		DepartureTime:  testNow.Add(2 * time.Hour),
		WaitingPlace:   "Bus depot",
		PricePerSeat:   5000,
		TotalSeats:     total,
		AvailableSeats: available,
		Status:         status,
		CreatedAt:      testNow,
	}
	_ = fakeTripRepo{e.store}.Create(context.Background(), t)
	return t
}
