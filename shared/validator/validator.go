package validator

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	val "github.com/go-playground/validator/v10"

	"teleconsult/config"
	"teleconsult/shared/constant"
	"teleconsult/shared/failure"
)

var validate *val.Validate

func timestampValidation(field val.FieldLevel) bool {
	_, err := time.Parse(constant.DateFormat, field.Field().String())

	return err == nil
}

func init() {
	cfg := config.Get()

	validate = val.New(val.WithRequiredStructEnabled())

	// selfcheck delegates to a field's own Validate(*config.Config) error method.
	rules := map[string]val.Func{
		"selfcheck": func(fl val.FieldLevel) bool {
			method := fl.Field().MethodByName("Validate")
			if !method.IsValid() {
				return false
			}

			result := method.Call([]reflect.Value{reflect.ValueOf(cfg)})

			return result[0].IsNil()
		},
		"timestamp": timestampValidation,
	}

	for tag, fn := range rules {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}

		return name
	})
}

// Validate decodes a JSON body into data and validates the result.
func Validate[T any](r io.Reader, data *T) error {
	if err := json.NewDecoder(r).Decode(data); err != nil {
		return failure.BadRequest(fmt.Errorf("failed to decode request body: %w", err)) //nolint:wrapcheck
	}

	return ValidateStruct(data)
}

func ValidateStruct[T any](data *T) error {
	if err := validate.Struct(data); err != nil {
		return failure.BadRequestFromString(message(err)) //nolint:wrapcheck
	}

	return nil
}

func ValidateVar(field any, tag string) error {
	if err := validate.Var(field, tag); err != nil {
		return failure.BadRequestFromString(message(err)) //nolint:wrapcheck
	}

	return nil
}
