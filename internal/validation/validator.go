package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a JSON field name to a human readable failure.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

// Validator checks request structs against their `validate` tags.
// Besides the stock tags it knows username, password and dob, and `email`
// runs ValidateEmail instead of the stock rule.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator with the forum's custom rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	mustRegister(v, "username", ValidateUsername)
	mustRegister(v, "password", ValidatePassword)
	mustRegister(v, "dob", ValidateDateOfBirth)
	mustRegister(v, "email", ValidateEmail)

	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, rule func(string) error) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return rule(fl.Field().String()) == nil
	})
	if err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

var customRules = map[string]func(string) error{
	"username": ValidateUsername,
	"password": ValidatePassword,
	"dob":      ValidateDateOfBirth,
}

// Struct validates s. It returns nil or FieldErrors.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	if rule, ok := customRules[fe.Tag()]; ok {
		if s, isString := fe.Value().(string); isString {
			if err := rule(s); err != nil {
				return err.Error()
			}
		}
	}

	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "required_without_all":
		return "at least one field must be provided"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
