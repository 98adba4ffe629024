// package validation provides helper functions for request data validation.
// It uses the go-playground/validator library and includes custom validation rules.
package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/YusovID/addon-reviews/internal/apperrors"
	"github.com/YusovID/addon-reviews/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func init() {
	// Report fields by their JSON name so messages match the request body.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	// "review_filter" accepts the listing filter values understood by the review service.
	err := validate.RegisterValidation("review_filter", func(fl validator.FieldLevel) bool {
		switch domain.ListFilter(fl.Field().String()) {
		case domain.FilterDefault, domain.FilterWithDeleted:
			return true
		default:
			return false
		}
	})
	if err != nil {
		panic(fmt.Sprintf("failed to register custom validation: %v", err))
	}

	// "not_blank" rejects strings made only of whitespace.
	err = validate.RegisterValidation("not_blank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	if err != nil {
		panic(fmt.Sprintf("failed to register custom validation: %v", err))
	}
}

// ValidationError holds every field error found in a struct.
type ValidationError struct {
	Errors []*apperrors.ValidationError
}

func (v *ValidationError) Error() string {
	msgs := make([]string, 0, len(v.Errors))
	for _, e := range v.Errors {
		msgs = append(msgs, e.Error())
	}

	return strings.Join(msgs, ", ")
}

func (v *ValidationError) Is(target error) bool { return target == apperrors.ErrValidation }

// Fields groups the messages by field name, the shape used in 400 responses.
func (v *ValidationError) Fields() map[string][]string {
	out := make(map[string][]string, len(v.Errors))
	for _, e := range v.Errors {
		key := e.Field
		if key == "" {
			key = "non_field_errors"
		}
		out[key] = append(out[key], e.Message)
	}

	return out
}

// ValidateStruct performs validation on a given struct based on its validation tags.
// If validation fails, it returns a *ValidationError with user-friendly messages.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validation: %w", err)
	}

	result := &ValidationError{}
	for _, fe := range verrs {
		result.Errors = append(result.Errors, apperrors.NewFieldError(fe.Field(), message(fe)))
	}

	return result
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "not_blank":
		return "This field is required."
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "review_filter":
		return fmt.Sprintf("Select a valid choice. %v is not one of the available choices.", fe.Value())
	case "oneof":
		return fmt.Sprintf("Select a valid choice. %v is not one of the available choices.", fe.Value())
	default:
		return fmt.Sprintf("field '%s' failed on the '%s' tag", fe.Field(), fe.Tag())
	}
}
