package validator

import (
	"errors"
	"reflect"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

var validate *playground.Validate

func init() {
	validate = playground.New(playground.WithRequiredStructEnabled())
	// Report fields under their JSON names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

// Struct validates s against its `validate` tags.
func Struct(s any) ValidationErrors {
	errs := make(ValidationErrors)
	err := validate.Struct(s)
	if err == nil {
		return errs
	}

	var fieldErrs playground.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			errs.Add(fe.Field(), messageFor(fe))
		}
		return errs
	}

	errs.Add("input", "Invalid input")
	return errs
}

func messageFor(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "max":
		return "Value is too long (max " + fe.Param() + ")"
	case "min":
		return "Value is too short (min " + fe.Param() + ")"
	case "uuid":
		return "Must be a valid identifier"
	default:
		return "Invalid value"
	}
}
