package application

import (
	"fmt"
	"strings"
	"time"

	"jupiter/internal/domain"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		displayName := formatFieldName(fieldName)
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", displayName),
		}
	}
	return nil
}

// formatFieldName converts camelCase field names to space-separated words
// for more readable error messages (e.g., "refID" -> "ref ID")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"refID":          "ref ID",
		"name":           "name",
		"timezone":       "timezone",
		"remoteSpace":    "remote space",
		"remoteToken":    "remote token",
		"projectKey":     "project key",
		"bigPlanID":      "big plan ID",
		"metricID":       "metric ID",
		"smartListID":    "smart list ID",
		"actionableDate": "actionable date",
		"dueDate":        "due date",
		"startDate":      "start date",
		"endDate":        "end date",
		"externalID":     "external ID",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}

	return fieldName
}

// ValidateRefID parses a local identity, returning a ValidationError when
// it is not a positive integer
func ValidateRefID(fieldName, value string) (domain.EntityID, error) {
	if err := ValidateRequired(fieldName, value); err != nil {
		return domain.BadRefID, err
	}
	id, err := domain.ParseEntityID(strings.TrimSpace(value))
	if err != nil {
		return domain.BadRefID, &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("expected %s, got: %s", formatFieldName(fieldName), value),
		}
	}
	return id, nil
}

// ValidateRefIDs parses a list of local identities
func ValidateRefIDs(fieldName string, values []string) ([]domain.EntityID, error) {
	ids := make([]domain.EntityID, 0, len(values))
	for _, v := range values {
		id, err := ValidateRefID(fieldName, v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ValidateDate parses an optional YYYY-MM-DD value. Empty yields nil.
func ValidateDate(fieldName, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(value)
	if err != nil {
		return nil, &ValidationError{Field: fieldName, Message: err.Error()}
	}
	return &d, nil
}

// ValidateEnum parses an enum value into a ValidationError-reporting form
func ValidateEnum[T ~string](fieldName, value string, allowed []T) (T, error) {
	v, err := domain.ParseEnum(formatFieldName(fieldName), value, allowed)
	if err != nil {
		return v, &ValidationError{Field: fieldName, Message: err.Error()}
	}
	return v, nil
}
