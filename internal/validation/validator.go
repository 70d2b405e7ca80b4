// Package validation wraps go-playground/validator so the service layer can
// check input shapes declaratively (struct tags) and still return errors
// from our own taxonomy.
package validation

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/snippethub/internal/apperror"
)

// Validator wraps a configured *validator.Validate instance.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that reports field names by their json tag, so an
// error about CreateSnippetInput.FolderID reads "folderId", matching what
// the client actually sent.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		for i := range len(name) {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})

	return &Validator{v: v}
}

// Struct validates s against its `validate:` tags. The first failing field
// is converted to an apperror validation failure; anything else (a broken
// tag, a non-struct argument) is returned as-is since it's a programming
// error, not bad input.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	e := fieldErrs[0]
	return apperror.ValidationFailed(e.Field(), friendlyMessage(e))
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", e.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", e.Field(), e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}
