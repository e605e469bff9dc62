package domain

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidateInput checks a creation payload
func ValidateInput(in ProductInput) error {
	return validateStruct(in)
}

// ValidatePatch checks an update payload. Only supplied fields are checked.
func ValidatePatch(patch ProductPatch) error {
	return validateStruct(patch)
}

func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return Internal(err)
	}

	fields := make([]FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		fields = append(fields, FieldError{
			Field:   e.Field(),
			Message: fieldErrorMessage(e),
		})
	}

	return Validation(summarize(fields), fields...)
}

func summarize(fields []FieldError) string {
	if len(fields) == 1 {
		return fields[0].Field + ": " + fields[0].Message
	}
	return "validation failed"
}

func fieldErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return "must not be empty"
	case "gt":
		if e.Field() == "price" {
			return "price must be a positive number"
		}
		return "value must be greater than " + e.Param()
	default:
		return "invalid value"
	}
}
