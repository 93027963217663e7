package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldLabels maps struct field names to the labels shown on the intake form
var FieldLabels = map[string]string{
	// Intake form
	"FullName":        "Full name",
	"Email":           "Email",
	"Employer":        "Employer",
	"Role":            "Role",
	"LinkedIn":        "LinkedIn",
	"Location":        "Location",
	"AreaOfExpertise": "Area of expertise",
	"Labels":          "Labels",
	"SegmentIDs":      "Segments",
	"Notes":           "Notes",

	// Auth
	"Password": "Password",
}

// FormatValidationErrors converts validator.ValidationErrors to user-friendly messages
func FormatValidationErrors(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatSingleError(e))
	}
	return messages
}

// formatSingleError formats a single validation error to a user-friendly message
func formatSingleError(e validator.FieldError) string {
	label := getFieldLabel(e.StructField())
	param := e.Param()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s: Required", label)

	case "min":
		switch e.Kind().String() {
		case "string":
			return fmt.Sprintf("%s: At least %s characters", label, param)
		case "slice":
			return fmt.Sprintf("%s: Select at least %s", label, param)
		}
		return fmt.Sprintf("%s: Must be at least %s", label, param)

	case "max":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s: At most %s characters", label, param)
		}
		return fmt.Sprintf("%s: At most %s", label, param)

	case "email":
		return fmt.Sprintf("%s: Invalid email format", label)

	case "unique":
		return fmt.Sprintf("%s: Contains duplicate selections", label)

	case "nonblank":
		return fmt.Sprintf("%s: Must not be blank", label)

	case "valid_name":
		return fmt.Sprintf("%s: Only letters, digits, spaces and common punctuation are allowed", label)

	case "no_emoji":
		return fmt.Sprintf("%s: Must not contain emoji or special symbols", label)

	default:
		return fmt.Sprintf("%s: Invalid value (%s)", label, e.Tag())
	}
}

// getFieldLabel returns the user-friendly label for a field
func getFieldLabel(fieldName string) string {
	// Slice elements are reported as Field[i]
	if i := strings.IndexByte(fieldName, '['); i > 0 {
		fieldName = fieldName[:i]
	}
	if label, ok := FieldLabels[fieldName]; ok {
		return label
	}
	return formatCamelCase(fieldName)
}

// formatCamelCase converts CamelCase to spaced words
func formatCamelCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune(' ')
		}
		result.WriteRune(r)
	}
	return result.String()
}
