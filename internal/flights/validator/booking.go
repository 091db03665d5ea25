package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"wayfarer/pkg/logger"
	"wayfarer/pkg/model"

	"github.com/go-playground/validator/v10"
)

var iataCodeRegex = regexp.MustCompile(`^[A-Z]{3}$`)

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

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	return &BookingValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *BookingValidator) ValidateBookingRequest(req *model.BookingRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}

	if len(req.Offer) == 0 || string(req.Offer) == "null" {
		return ValidationErrors{
			ValidationError{Field: "Offer", Message: "offer payload is required"},
		}
	}

	return nil
}

func (v *BookingValidator) ValidateSearch(origin, destination, departureDate string) error {
	var errs ValidationErrors

	if !iataCodeRegex.MatchString(origin) {
		errs = append(errs, ValidationError{
			Field:   "origin",
			Message: "origin must be a three-letter IATA code",
		})
	}
	if !iataCodeRegex.MatchString(destination) {
		errs = append(errs, ValidationError{
			Field:   "destination",
			Message: "destination must be a three-letter IATA code",
		})
	}
	if departureDate == "" {
		errs = append(errs, ValidationError{
			Field:   "departure_date",
			Message: "departure_date is required (YYYY-MM-DD)",
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
		case "datetime":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
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
