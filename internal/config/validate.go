package config

import (
	"strings"

	"wikinotify/internal/domain/entity"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Transport names are checked by the same parser the notifier uses.
	_ = v.RegisterValidation("transport_kind", func(fl validator.FieldLevel) bool {
		_, err := entity.ParseTransportKind(fl.Field().String())
		return err == nil
	})
	return v
}

// secretFields never have their value echoed in validation errors.
var secretFields = []string{"EndpointURL", "IngestSecret"}

func redact(fe validator.FieldError) any {
	for _, name := range secretFields {
		if strings.EqualFold(fe.StructField(), name) {
			return "[redacted]"
		}
	}
	return fe.Value()
}
