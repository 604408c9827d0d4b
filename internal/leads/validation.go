package leads

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	linkedInPattern = regexp.MustCompile(`^https?://(www\.)?linkedin\.com/`)
	phonePattern    = regexp.MustCompile(`^[0-9+\-() ]+$`)
)

const minPhoneLength = 8

// Validator checks candidate records before they reach a store.
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a Validator with the lead rules registered.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	mustRegister(v, "required_trimmed", requiredTrimmed)
	mustRegister(v, "min_trimmed", minTrimmed)
	mustRegister(v, "email_shape", optional(emailPattern.MatchString))
	mustRegister(v, "linkedin_url", optional(linkedInPattern.MatchString))
	mustRegister(v, "phone_chars", optional(validPhone))
	mustRegister(v, "lead_status", validStatus)
	return &Validator{v: v}
}

// RegisterValidation adds a custom rule usable from struct tags.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

// Struct validates s and returns every failing field, keyed by JSON name.
func (val *Validator) Struct(s any) FieldErrors {
	errs := FieldErrors{}
	err := val.v.Struct(s)
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["_"] = err.Error()
		return errs
	}
	for _, fe := range verrs {
		if _, seen := errs[fe.Field()]; seen {
			continue
		}
		errs[fe.Field()] = message(fe)
	}
	return errs
}

var defaultValidator = NewValidator()

// Validate checks a candidate lead. All rules run; the result is the complete
// error map and is empty when the candidate is acceptable.
func Validate(in LeadInput) FieldErrors {
	return defaultValidator.Struct(in)
}

// ValidatePatch validates the record that would result from applying patch to existing.
func ValidatePatch(existing Lead, patch LeadPatch) FieldErrors {
	merged := existing.Clone()
	patch.apply(&merged)
	errs := Validate(merged.Input())
	if patch.Status != nil && *patch.Status != "" && !patch.Status.Valid() {
		errs["status"] = "is not a valid status"
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required_trimmed":
		return "is required"
	case "min_trimmed":
		return "must be at least " + fe.Param() + " characters"
	case "email_shape":
		return "must be a valid email address"
	case "linkedin_url":
		return "must be a LinkedIn URL (https://linkedin.com/...)"
	case "phone_chars":
		return "must contain only digits, spaces, +, -, ( ) and be at least 8 characters"
	case "lead_status":
		return "is not a valid status"
	case "gte", "min":
		return "must be at least " + fe.Param()
	case "lte", "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("leads: register validation " + tag + ": " + err.Error())
	}
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

func requiredTrimmed(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func minTrimmed(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= n
}

// optional passes blank values and checks the trimmed value otherwise.
func optional(check func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := strings.TrimSpace(fl.Field().String())
		return value == "" || check(value)
	}
}

func validPhone(value string) bool {
	return len(value) >= minPhoneLength && phonePattern.MatchString(value)
}

func validStatus(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	return raw == "" || Status(raw).Valid()
}
