package services

import (
	"context"
	"testing"
	"time"

	"tiyeni/internal/models"
	"tiyeni/internal/utils"
)

func newDriverEnv(t *testing.T) (DriverService, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	store.users["d1"] = models.User{UID: "d1", Email: "d1@example.com", Role: models.UserRolePassenger}
	images, _ := newLocalImages(t)
	deps := Deps{Tx: &fakeTx{store: store}, Clock: fixedClock, Timeout: time.Second}
	return NewDriverService(deps, fakeDriverRepo{store}, fakeUserRepo{store}, images), store
}

func registerRequest(t *testing.T) *RegisterDriverRequest {
	img := pngDataURI(t, 20, 20)
	return &RegisterDriverRequest{
		FullName:       "Chikondi Banda",
		Gender:         "female",
		DriverCategory: models.DriverCategoryPersonal,
		VehicleType:    models.VehicleTypeMinibus,
		Seats:          14,
		Color:          "White",
		ProfilePhoto:   img,
		PlateImage:     img,
		LicenseImage:   img,
		CarImage:       img,
	}
}

func TestRegisterDriver(t *testing.T) {
	drivers, store := newDriverEnv(t)
	ctx := context.Background()

	driver, err := drivers.RegisterDriver(ctx, session("d1"), registerRequest(t))
	if err != nil {
		t.Fatalf("RegisterDriver: %v", err)
	}
	if !driver.Verified || driver.ProfilePhotoURL == "" || driver.Vehicle.CarImage == "" {
		t.Fatalf("driver = %+v", driver)
	}
	if driver.Vehicle.PlateImage == driver.Vehicle.LicenseImage {
		t.Fatalf("images share a url")
	}
	if store.users["d1"].Role != models.UserRoleDriver {
		t.Fatalf("user role = %s", store.users["d1"].Role)
	}

	got, err := drivers.GetDriver(ctx, session("d1"))
	if err != nil || got.FullName != "Chikondi Banda" {
		t.Fatalf("GetDriver: %v", err)
	}
}

func TestRegisterDriverCompanyNeedsName(t *testing.T) {
	drivers, store := newDriverEnv(t)

	request := registerRequest(t)
	request.DriverCategory = models.DriverCategoryCompany
	if _, err := drivers.RegisterDriver(context.Background(), session("d1"), request); !utils.HasCode(err, utils.CodeValidation) {
		t.Fatalf("err = %v", err)
	}
	if len(store.drivers) != 0 {
		t.Fatalf("driver saved despite validation error")
	}

	request.CompanyName = "Zomba Shuttles"
	driver, err := drivers.RegisterDriver(context.Background(), session("d1"), request)
	if err != nil || driver.CompanyName != "Zomba Shuttles" {
		t.Fatalf("RegisterDriver: %v", err)
	}
}

func TestRegisterDriverBadImage(t *testing.T) {
	drivers, store := newDriverEnv(t)

	request := registerRequest(t)
	request.LicenseImage = "bm90IGFuIGltYWdl"
	if _, err := drivers.RegisterDriver(context.Background(), session("d1"), request); !utils.HasCode(err, utils.CodeValidation) {
		t.Fatalf("err = %v", err)
	}
	if len(store.drivers) != 0 {
		t.Fatalf("driver saved despite failed upload")
	}
}

func TestGetDriverNotRegistered(t *testing.T) {
	drivers, _ := newDriverEnv(t)

	if _, err := drivers.GetDriver(context.Background(), session("d9")); !utils.HasCode(err, utils.CodeNotFound) {
		t.Fatalf("err = %v", err)
	}
	if _, err := drivers.GetDriver(context.Background(), nil); !utils.HasCode(err, utils.CodeAuthRequired) {
		t.Fatalf("err = %v", err)
	}
}
