package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// validate is shared by all services; validator caches struct metadata per type.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return usernamePattern.MatchString(s) && !strings.EqualFold(s, "me")
	})
	return v
}

// validateStruct runs the struct tags of in and converts failures to FieldErrors.
func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fe := make([]FieldError, 0, len(verrs))
	for _, e := range verrs {
		fe = append(fe, FieldError{Field: fieldPath(e), Message: message(e)})
	}
	return NewInvalidInput(fe...)
}

// fieldPath drops the root struct name: "RecipeInput.ingredients[0].amount" -> "ingredients[0].amount".
func fieldPath(e validator.FieldError) string {
	_, path, found := strings.Cut(e.Namespace(), ".")
	if !found {
		return e.Field()
	}
	return path
}

func message(e validator.FieldError) string {
	isString := e.Kind() == reflect.String
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "datauri":
		return "must be a base64 data URI"
	case "username":
		return `may contain only letters, digits and @/./+/-/_ and must not be "me"`
	case "unique":
		return "must not contain duplicates"
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters", e.Param())
		}
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", e.Param())
		}
		return "must be <= " + e.Param()
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", e.Param())
		}
		return "must be >= " + e.Param()
	case "gt":
		return "must be > " + e.Param()
	default:
		return "failed " + e.Tag() + " validation"
	}
}
