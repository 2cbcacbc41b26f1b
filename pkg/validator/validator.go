package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate

	collegeIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{1,19}$`)
	phonePattern     = regexp.MustCompile(`^\+?[0-9][0-9 -]{6,18}[0-9]$`)
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

// Message renders a short user-facing explanation of the failure.
func (v ValidationError) Message() string {
	switch v.Tag {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", v.Param)
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", v.Param)
	case "oneof":
		return "Select a valid choice."
	case "eqfield":
		return "The two password fields didn't match."
	case "college_id":
		return "Enter a valid College ID."
	case "phone":
		return "Enter a valid phone number."
	default:
		return "Invalid value."
	}
}

// ValidationErrors collects multiple validation failures.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	parts := make([]string, len(v))
	for i, err := range v {
		if err.Param != "" {
			parts[i] = err.Field + " failed on " + err.Tag + "=" + err.Param
		} else {
			parts[i] = err.Field + " failed on " + err.Tag
		}
	}
	return strings.Join(parts, "; ")
}

// Fields maps each failing field to its first message.
func (v ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(v))
	for _, err := range v {
		if _, seen := out[err.Field]; seen {
			continue
		}
		out[err.Field] = err.Message()
	}
	return out
}

// ValidateStruct validates a struct using registered rules.
func ValidateStruct(s interface{}) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	if ve, ok := err.(validator.ValidationErrors); ok {
		failures := make(ValidationErrors, 0, len(ve))
		for _, fe := range ve {
			failures = append(failures, ValidationError{
				Field: fe.Field(),
				Tag:   fe.Tag(),
				Param: fe.Param(),
			})
		}
		return failures
	}

	return err
}

// RegisterValidation exposes underlying validator custom rules.
func RegisterValidation(tag string, fn validator.Func) error {
	return getValidator().RegisterValidation(tag, fn)
}

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := fld.Tag.Get("json")
			if name == "" {
				return fld.Name
			}

			comma := strings.Index(name, ",")
			if comma != -1 {
				name = name[:comma]
			}

			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("college_id", func(fl validator.FieldLevel) bool {
			return collegeIDPattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			value := fl.Field().String()
			return value == "" || phonePattern.MatchString(value)
		})
	})
	return validate
}
