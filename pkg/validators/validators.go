package validators

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[\d\s\-+()]+$`)
	nonDigits    = regexp.MustCompile(`\D`)
)

var postalCodePatterns = map[string]*regexp.Regexp{
	"US": regexp.MustCompile(`^\d{5}(-\d{4})?$`),
	"CA": regexp.MustCompile(`(?i)^[A-Z]\d[A-Z] ?\d[A-Z]\d$`),
	"UK": regexp.MustCompile(`(?i)^[A-Z]{1,2}\d{1,2}[A-Z]? ?\d[A-Z]{2}$`),
	"AU": regexp.MustCompile(`^\d{4}$`),
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Struct validates a request payload and reports failures as a validation error
// whose details map json field names to messages.
func Struct(payload any) error {
	if err := validate.Struct(payload); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldPath(fieldErr)] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

// fieldPath drops the root struct name from the namespace so nested fields
// read like "line_items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "email":
		return "must be a valid email"
	}
	return "is invalid"
}

func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsValidPhone accepts digits, spaces, dashes, plus signs and parentheses with at least ten digits.
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(phone) && len(nonDigits.ReplaceAllString(phone, "")) >= 10
}

// IsValidPostalCode checks the code against the country's format, falling back to US.
func IsValidPostalCode(postalCode, country string) bool {
	pattern, ok := postalCodePatterns[strings.ToUpper(strings.TrimSpace(country))]
	if !ok {
		pattern = postalCodePatterns["US"]
	}
	return pattern.MatchString(postalCode)
}
