// Package validation validates decoded request bodies with
// go-playground/validator and registers the service's custom tags.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/YusovID/editorial-workflow/internal/policy"
	"github.com/go-playground/validator/v10"
)

var (
	validate = validator.New()

	idPattern    = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	tokenPattern = regexp.MustCompile(`^[a-f0-9]{32,128}$`)
)

func init() {
	// Report fields by their JSON names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}

		return name
	})

	rules := map[string]validator.Func{
		"custom_id": func(fl validator.FieldLevel) bool {
			// Empty values are left to 'required'.
			return fl.Field().String() == "" || idPattern.MatchString(fl.Field().String())
		},
		"token": func(fl validator.FieldLevel) bool {
			return tokenPattern.MatchString(fl.Field().String())
		},
		"stage": func(fl validator.FieldLevel) bool {
			return policy.Known(fl.Field().String())
		},
	}

	for tag, fn := range rules {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("failed to register custom validation '%s': %v", tag, err))
		}
	}
}

type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return strings.Join(v.Errors, ", ")
}

// ValidateStruct checks s against its validate tags and returns a
// *ValidationError listing every failed field.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	messages := make([]string, 0, len(fieldErrs))

	for _, fe := range fieldErrs {
		messages = append(messages, message(fe))
	}

	return &ValidationError{Errors: messages}
}

// ValidateVar checks a single value, e.g. a path parameter.
func ValidateVar(name string, value any, tag string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	messages := make([]string, 0, len(fieldErrs))

	for _, fe := range fieldErrs {
		messages = append(messages, strings.Replace(message(fe), "''", "'"+name+"'", 1))
	}

	return &ValidationError{Errors: messages}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required", fe.Field())
	case "custom_id":
		return fmt.Sprintf("field '%s' must contain only letters, numbers, hyphens, and underscores", fe.Field())
	case "token":
		return fmt.Sprintf("field '%s' is not a valid invitation token", fe.Field())
	case "stage":
		return fmt.Sprintf("field '%s' is not a known workflow stage", fe.Field())
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of [%s]", fe.Field(), fe.Param())
	case "required_if":
		return fmt.Sprintf("field '%s' is required here", fe.Field())
	default:
		return fmt.Sprintf("field '%s' failed on the '%s' tag", fe.Field(), fe.Tag())
	}
}
