// Package validation checks inbound payloads and renders human readable
// problems for error frames and HTTP 400 bodies.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidPayload is wrapped by every error returned from this package.
var ErrInvalidPayload = errors.New("invalid payload")

// Error lists the problems found in one payload.
type Error struct {
	Problems []string
}

func (e *Error) Error() string {
	return "validation error: " + strings.Join(e.Problems, "; ")
}

func (e *Error) Unwrap() error {
	return ErrInvalidPayload
}

// Validator wraps a validator instance that reports json field names.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Struct validates s using its `validate` tags.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		problems := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			problems = append(problems, describe(fe))
		}
		return &Error{Problems: problems}
	}
	return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
}

// Decode unmarshals raw into dst and validates it.
func (v *Validator) Decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return &Error{Problems: []string{"payload is required"}}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &Error{Problems: []string{"payload is malformed: " + err.Error()}}
	}
	return v.Struct(dst)
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "latitude":
		return field + " must be a decimal latitude between -90 and 90"
	case "longitude":
		return field + " must be a decimal longitude between -180 and 180"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}
