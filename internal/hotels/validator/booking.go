package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"wayfarer/pkg/logger"
	"wayfarer/pkg/model"

	"github.com/go-playground/validator/v10"
)

var cityCodeRegex = regexp.MustCompile(`^[A-Z]{3}$`)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type HotelValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewHotelValidator(log *logger.Logger) *HotelValidator {
	return &HotelValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *HotelValidator) ValidateBookingRequest(req *model.HotelBookingRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *HotelValidator) ValidateOfferSearch(cityCode, checkInDate, checkOutDate string) error {
	var errs ValidationErrors

	if !cityCodeRegex.MatchString(cityCode) {
		errs = append(errs, ValidationError{
			Field:   "city_code",
			Message: "city_code must be a three-letter IATA city code",
		})
	}

	checkIn, checkInErr := time.Parse("2006-01-02", checkInDate)
	if checkInErr != nil {
		errs = append(errs, ValidationError{
			Field:   "check_in_date",
			Message: "check_in_date must be a date in YYYY-MM-DD format",
		})
	}
	checkOut, checkOutErr := time.Parse("2006-01-02", checkOutDate)
	if checkOutErr != nil {
		errs = append(errs, ValidationError{
			Field:   "check_out_date",
			Message: "check_out_date must be a date in YYYY-MM-DD format",
		})
	}
	if checkInErr == nil && checkOutErr == nil && !checkOut.After(checkIn) {
		errs = append(errs, ValidationError{
			Field:   "check_out_date",
			Message: "check_out_date must be after check_in_date",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "min":
			message = fmt.Sprintf("%s must have at least %s item(s)", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must have at most %s item(s)", err.Field(), err.Param())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +12125551234)", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
