package validator

import (
	"encoding/json"
	"fmt"
	"io"
	"marina/shared/base64"
	"marina/shared/failure"
	"reflect"
	"slices"
	"strconv"
	"strings"

	val "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const bytesPerMegabyte = 1024 * 1024

var validate *val.Validate

// mimetypes=image/png image/jpeg checks the content type of a base64 data uri.
func validateMimetypes(field val.FieldLevel) bool {
	str, ok := field.Field().Interface().(string)
	if !ok {
		return false
	}

	contentType := base64.GetContentType(str)
	if contentType == "" {
		return false
	}

	return slices.Contains(strings.Fields(field.Param()), contentType)
}

// maxfilesize=2 limits the decoded size of a base64 data uri in megabytes.
func validateFileSize(field val.FieldLevel) bool {
	str, ok := field.Field().Interface().(string)
	if !ok {
		return false
	}

	maxSizeMB, err := strconv.ParseFloat(field.Param(), 64)
	if err != nil {
		return false
	}

	return float64(base64.DecodedLen(str)) <= maxSizeMB*bytesPerMegabyte
}

// decimal values are validated as float64 so numeric tags like gte=0 apply to money fields.
func decimalTypeFunc(field reflect.Value) any {
	if value, ok := field.Interface().(decimal.Decimal); ok {
		return value.InexactFloat64()
	}

	return nil
}

func init() {
	validate = val.New(val.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	validate.RegisterCustomTypeFunc(decimalTypeFunc, decimal.Decimal{})

	err := validate.RegisterValidation("empty", func(fl val.FieldLevel) bool {
		return fl.Field().IsZero()
	})
	if err != nil {
		panic(err)
	}

	err = validate.RegisterValidation("mimetypes", validateMimetypes)
	if err != nil {
		panic(err)
	}

	err = validate.RegisterValidation("maxfilesize", validateFileSize)
	if err != nil {
		panic(err)
	}
}

// Validate decodes a JSON body into data and validates it.
// https://github.com/go-playground/validator
func Validate[T any](r io.Reader, data *T) error {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	err := decoder.Decode(data)
	if err != nil {
		return failure.BadRequest(fmt.Errorf("failed to decode request body: %w", err)) //nolint:wrapcheck
	}

	return ValidateStruct(data)
}

func ValidateStruct[T any](data *T) error {
	err := validate.Struct(data)
	if err != nil {
		msg := message(err)

		return failure.BadRequestFromString(msg) //nolint:wrapcheck
	}

	return nil
}

func ValidateVar(field any, tag string) error {
	err := validate.Var(field, tag)
	if err != nil {
		msg := message(err)

		return failure.BadRequestFromString(msg) //nolint:wrapcheck
	}

	return nil
}
