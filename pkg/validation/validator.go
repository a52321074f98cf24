package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError is the first struct-tag violation found on a value.
type FieldError struct {
	Field  string
	Tag    string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// StructValidator checks struct tags. Each caller owns its instance so no
// validator state is shared between concurrent builds.
type StructValidator struct {
	validate *validator.Validate
}

// NewStructValidator creates a validator that reports fields by their json
// name and knows the label-key rule used by selectors.
func NewStructValidator() *StructValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("labelkey", func(fl validator.FieldLevel) bool {
		return ValidLabelKey(fl.Field().String())
	})
	return &StructValidator{validate: v}
}

// Check validates v and returns the first violation, or nil.
func (sv *StructValidator) Check(v any) *FieldError {
	err := sv.validate.Struct(v)
	if err == nil {
		return nil
	}
	return formatValidationError(err)
}

// ValidLabelKey reports whether key is an acceptable label or annotation
// key: an optional DNS prefix and a slash, then up to 63 name characters.
func ValidLabelKey(key string) bool {
	prefix, name, found := strings.Cut(key, "/")
	if !found {
		name, prefix = prefix, ""
	} else if prefix == "" || len(prefix) > 253 {
		return false
	}
	if name == "" || len(name) > 63 {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

func formatValidationError(err error) *FieldError {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return &FieldError{Reason: err.Error()}
	}

	e := validationErrs[0]
	field := e.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	fe := &FieldError{Field: field, Tag: e.Tag()}

	switch e.Tag() {
	case "required":
		fe.Reason = "field is required"
	case "min":
		fe.Reason = fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		fe.Reason = fmt.Sprintf("must not exceed %s", e.Param())
	case "excludesall":
		fe.Reason = fmt.Sprintf("must not contain any of %q", e.Param())
	case "labelkey":
		fe.Reason = fmt.Sprintf("invalid label key %q", e.Value())
	default:
		fe.Reason = fmt.Sprintf("validation failed (%s)", e.Tag())
	}
	return fe
}
