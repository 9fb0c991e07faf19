// Package validation holds the field schema shared by stores, services and transports.
// Constraints are declared with `validate` struct tags and checked by a single validator instance,
// so every boundary reports the same violations for the same payload.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	inverrors "github.com/gamevault/inventory/internal/errors"
	"github.com/go-playground/validator/v10"
)

// Product categories accepted by the catalog.
const (
	CategoryGame    = "game"
	CategoryConsole = "console"
)

// IsCategory reports whether c names a known product category.
func IsCategory(c string) bool {
	return c == CategoryGame || c == CategoryConsole
}

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator with the custom rules registered.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// report json field names instead of Go field names
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = validate.RegisterValidation("category", func(fl validator.FieldLevel) bool {
			return IsCategory(fl.Field().String())
		})
	})
	return validate
}

// Struct validates v against its tags and returns a *ValidationError listing every violation.
func Struct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("failed to validate %T: %w", v, err)
	}
	violations := make([]inverrors.Violation, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		violations = append(violations, inverrors.Violation{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return inverrors.NewValidationError(violations...)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", fe.Field())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must not exceed %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "category":
		return fmt.Sprintf("%s must be one of [%s %s]", fe.Field(), CategoryGame, CategoryConsole)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	case "uuid":
		return fmt.Sprintf("%s must be a valid identifier", fe.Field())
	default:
		return fmt.Sprintf("%s failed on rule: %s", fe.Field(), fe.Tag())
	}
}
