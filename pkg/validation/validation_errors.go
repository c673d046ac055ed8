package validation

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// MissingFields lists the fields that failed a presence rule. Used for
// logging only; clients get a static message.
func MissingFields(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	var fields []string
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required", "notblank":
			fields = append(fields, e.Field())
		}
	}
	return fields
}
