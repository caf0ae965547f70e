package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"tiyeni/internal/models"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report json field names so details match the request body.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	validate.RegisterValidation("object_id", validateObjectID)
	validate.RegisterValidation("not_blank", validateNotBlank)
	validate.RegisterValidation("vehicle_type", validateVehicleType)
	validate.RegisterValidation("trip_status", validateTripStatus)
	validate.RegisterValidation("preferred_gender", validatePreferredGender)
	validate.RegisterValidation("driver_category", validateDriverCategory)
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// Map returns field -> message, keeping the first message per field.
func (v ValidationErrors) Map() map[string]string {
	out := make(map[string]string, len(v))
	for _, err := range v {
		if _, ok := out[err.Field]; !ok {
			out[err.Field] = err.Message
		}
	}
	return out
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return ValidationErrors{{Field: "request", Tag: "invalid", Message: err.Error()}}
	}
	for _, fe := range fieldErrors {
		validationErrors = append(validationErrors, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: getErrorMessage(fe),
		})
	}
	return validationErrors
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required", "not_blank":
		return fmt.Sprintf("%s is required", err.Field())
	case "email":
		return "Invalid email format"
	case "min":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
		}
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "max":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		}
		return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
	case "required_if":
		return fmt.Sprintf("%s is required", err.Field())
	case "object_id":
		return "Invalid ID format"
	case "vehicle_type":
		return "Vehicle type must be Car, Minibus or Bus"
	case "trip_status":
		return "Unknown trip status"
	case "preferred_gender":
		return "Preferred gender must be ANY, MALE or FEMALE"
	case "driver_category":
		return "Driver category must be personal, company or business"
	default:
		return fmt.Sprintf("Validation failed for %s", err.Field())
	}
}

func validateObjectID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let required tag handle empty values
	}
	_, err := primitive.ObjectIDFromHex(value)
	return err == nil
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateVehicleType(fl validator.FieldLevel) bool {
	return models.VehicleType(fl.Field().String()).IsValid()
}

func validateTripStatus(fl validator.FieldLevel) bool {
	return models.TripStatus(fl.Field().String()).IsValid()
}

func validatePreferredGender(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.PreferredGender(value).IsValid()
}

func validateDriverCategory(fl validator.FieldLevel) bool {
	return models.DriverCategory(fl.Field().String()).IsValid()
}
