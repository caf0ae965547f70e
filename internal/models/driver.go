package models

import "time"

type DriverCategory string

const (
	DriverCategoryPersonal DriverCategory = "personal"
	DriverCategoryCompany  DriverCategory = "company"
	DriverCategoryBusiness DriverCategory = "business"
)

func (c DriverCategory) IsValid() bool {
	switch c {
	case DriverCategoryPersonal, DriverCategoryCompany, DriverCategoryBusiness:
		return true
	}
	return false
}

// Driver is keyed by the auth provider uid.
type Driver struct {
	UID             string         `json:"uid" bson:"_id"`
	FullName        string         `json:"full_name" bson:"full_name"`
	Gender          string         `json:"gender" bson:"gender"`
	DriverCategory  DriverCategory `json:"driver_category" bson:"driver_category"`
	CompanyName     string         `json:"company_name,omitempty" bson:"company_name,omitempty"`
	ProfilePhotoURL string         `json:"profile_photo_url" bson:"profile_photo_url"`
	Vehicle         DriverVehicle  `json:"vehicle" bson:"vehicle"`
	Verified        bool           `json:"verified" bson:"verified"`
	CreatedAt       time.Time      `json:"created_at" bson:"created_at"`
}

// DriverVehicle is the primary vehicle captured at driver registration.
type DriverVehicle struct {
	Type         VehicleType `json:"type" bson:"type"`
	Seats        int         `json:"seats" bson:"seats"`
	Color        string      `json:"color" bson:"color"`
	PlateImage   string      `json:"plate_image" bson:"plate_image"`
	LicenseImage string      `json:"license_image" bson:"license_image"`
	CarImage     string      `json:"car_image" bson:"car_image"`
}
