package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/campuspulse/campuspulse/internal/pkg/apperrors"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// tagName is shared by gin request binding and service level checks so a
// request struct carries its rules once.
const tagName = "binding"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName(tagName)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Struct validates s and returns an apperrors validation error carrying a
// field to message map.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return apperrors.NewValidationError("Validation failed", FieldErrors(ve))
	}
	return fmt.Errorf("%w: %v", apperrors.ErrValidationFailed, err)
}

// FieldErrors maps each failing field to a readable message
func FieldErrors(ve validator.ValidationErrors) map[string]interface{} {
	out := make(map[string]interface{}, len(ve))
	for _, fe := range ve {
		out[fe.Field()] = Message(fe)
	}
	return out
}

// Message renders a single validation failure
func Message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
		}
		return e.Field() + " must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
		}
		return e.Field() + " must be at most " + e.Param()
	case "email":
		return e.Field() + " must be a valid email address"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}

type ginValidator struct{}

func (ginValidator) ValidateStruct(obj interface{}) error {
	if obj == nil {
		return nil
	}
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	return validate.Struct(obj)
}

func (ginValidator) Engine() interface{} {
	return validate
}

// InstallGinValidator makes gin request binding use the shared validator, so
// binding errors report json field names.
func InstallGinValidator() {
	binding.Validator = ginValidator{}
}
