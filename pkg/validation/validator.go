package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	// Custom validator instance
	validate = validator.New()

	// Regex patterns for validation
	tickerPattern = regexp.MustCompile(`^[A-Z0-9.]{1,10}$`)
)

// ValidationError represents a validation error with field and message
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// Register custom validators
func init() {
	validate.RegisterValidation("ticker", validateTicker)
	validate.RegisterValidation("price", validatePrice)
	validate.RegisterValidation("optiontype", validateOptionType)
}

// validateTicker validates ticker symbol format
func validateTicker(fl validator.FieldLevel) bool {
	return tickerPattern.MatchString(fl.Field().String())
}

// validatePrice validates price is positive and reasonable
func validatePrice(fl validator.FieldLevel) bool {
	price := fl.Field().Float()
	// Price must be positive and less than 1 million
	return price > 0 && price < 1000000
}

// validateOptionType validates the option type is call or put. The field may
// be a named string type, so read it by kind rather than asserting.
func validateOptionType(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "call" || s == "put"
}

// ValidateStruct validates a struct using tags
func ValidateStruct(s interface{}) ValidationErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var errors ValidationErrors
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		tag := err.Tag()
		value := err.Value()

		message := getErrorMessage(field, tag, value)
		errors = append(errors, ValidationError{
			Field:   field,
			Message: message,
			Value:   value,
		})
	}

	return errors
}

// getErrorMessage returns a user-friendly error message
func getErrorMessage(field, tag string, value interface{}) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "ticker":
		return fmt.Sprintf("%s must be a valid ticker symbol (1-10 uppercase letters/numbers)", field)
	case "price":
		return fmt.Sprintf("%s must be a positive price less than 1,000,000", field)
	case "optiontype":
		return fmt.Sprintf("%s must be either \"call\" or \"put\"", field)
	case "min":
		return fmt.Sprintf("%s must be at least %v", field, value)
	case "max":
		return fmt.Sprintf("%s must be at most %v", field, value)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}

// SanitizeString removes potentially dangerous characters
func SanitizeString(s string) string {
	// Remove null bytes and control characters
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 { // Keep tab, newline, carriage return
			return -1
		}
		return r
	}, s)

	// Trim whitespace
	return strings.TrimSpace(s)
}

// SanitizeSymbol uppercases and strips a ticker symbol
func SanitizeSymbol(s string) string {
	return strings.ToUpper(SanitizeString(s))
}

// SanitizePrice ensures price is within reasonable bounds
func SanitizePrice(price float64) float64 {
	if price <= 0 {
		return 0.01 // Minimum valid price
	}
	if price > 1000000 {
		return 1000000 // Maximum reasonable price
	}
	return price
}

// SanitizeObservedAt clamps a refresh timestamp into the past
func SanitizeObservedAt(t time.Time) time.Time {
	now := time.Now()
	if t.IsZero() || t.After(now) {
		return now
	}
	return t
}
