package validator

import (
	"errors"
	"fmt"
	"strings"

	"wayfarer/pkg/logger"
	"wayfarer/pkg/model"

	"github.com/go-playground/validator/v10"
)

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

type TripValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewTripValidator(log *logger.Logger) *TripValidator {
	return &TripValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *TripValidator) ValidateTrip(trip *model.Trip) error {
	if err := v.validate.Struct(trip); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *TripValidator) ValidateExpense(expense *model.Expense) error {
	if err := v.validate.Struct(expense); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
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
		case "min":
			message = fmt.Sprintf("%s must be at least %s character(s)", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s character(s)", err.Field(), err.Param())
		case "gtefield":
			message = fmt.Sprintf("%s must not be before %s", err.Field(), err.Param())
		case "gte":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		case "len":
			message = fmt.Sprintf("%s must be exactly %s character(s)", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), strings.ReplaceAll(err.Param(), " ", ", "))
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
