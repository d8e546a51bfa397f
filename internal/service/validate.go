package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/taskquest/internal/apperror"
)

// validate is shared by all services; validator caches struct metadata, so
// one instance for the process is the intended use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report the form field name ("senha") rather than the Go field name
	// ("Password"), so handlers can point at the right input.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// validateInput runs the struct's `validate` tags and converts the first
// failure into an apperror.ValidationFailed with a player-facing message.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("service: validating input: %w", err)
	}

	fe := verrs[0]
	return apperror.ValidationFailed(fe.Field(), validationMessage(fe))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("O campo %s é obrigatório.", fe.Field())
	case "email":
		return "Email inválido."
	case "min":
		return fmt.Sprintf("O campo %s precisa de pelo menos %s caracteres.", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("O campo %s aceita no máximo %s caracteres.", fe.Field(), fe.Param())
	case "url":
		return "URL inválida."
	case "datetime":
		return "Data inválida."
	default:
		return fmt.Sprintf("O campo %s é inválido.", fe.Field())
	}
}
