package validator

import (
	"errors"
	"strings"

	val "github.com/go-playground/validator/v10"
)

var messages = map[string]string{
	"required":    "{field} is required",
	"gte":         "{field} must be greater than or equal to {param}",
	"lte":         "{field} must be less than or equal to {param}",
	"oneof":       "{field} must be one of {param}",
	"max":         "{field} must be less than or equal to {param}",
	"min":         "{field} must be greater than or equal to {param}",
	"email":       "{field} must be a valid email address",
	"gtfield":     "{field} must be after {param}",
	"uuid":        "{field} must be a valid UUID",
	"timestamp":   "{field} must be an RFC3339 timestamp",
}

func message(err error) string {
	var valErrors val.ValidationErrors

	if !errors.As(err, &valErrors) {
		return err.Error()
	}

	for _, valErr := range valErrors {
		msg := messages[valErr.Tag()]
		if msg == "" {
			continue
		}

		msg = strings.ReplaceAll(msg, "{field}", valErr.Field())

		return strings.ReplaceAll(msg, "{param}", valErr.Param())
	}

	return valErrors.Error()
}
