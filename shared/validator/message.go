package validator

import (
	"errors"
	"fmt"
	"strings"

	val "github.com/go-playground/validator/v10"
)

// templates render one field error. %[1]s is the json field name and %[2]s the tag parameter.
var templates = map[string]string{
	"required":    "%[1]s is required",
	"empty":       "%[1]s must not be set",
	"gte":         "%[1]s must be greater than or equal to %[2]s",
	"min":         "%[1]s must be greater than or equal to %[2]s",
	"lte":         "%[1]s must be less than or equal to %[2]s",
	"max":         "%[1]s must be less than or equal to %[2]s",
	"oneof":       "%[1]s must be one of %[2]s",
	"uuid":        "%[1]s must be a valid UUID",
	"datetime":    "%[1]s must match the format %[2]s",
	"mimetypes":   "%[1]s must be one of %[2]s",
	"maxfilesize": "%[1]s must not exceed %[2]s MB",
}

// message joins a readable sentence per failed field. Tags without a template fall back
// to the library's text.
func message(err error) string {
	var fieldErrors val.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err.Error()
	}

	sentences := make([]string, 0, len(fieldErrors))

	for _, fieldErr := range fieldErrors {
		template, ok := templates[fieldErr.Tag()]
		if !ok {
			sentences = append(sentences, fieldErr.Error())

			continue
		}

		sentences = append(sentences, fmt.Sprintf(template, fieldErr.Field(), fieldErr.Param()))
	}

	return strings.Join(sentences, "; ")
}
