package application

import (
	"fmt"
	"slices"
	"strings"

	"jupiter/internal/domain"
)

// Re-export domain types for use by adapters
type (
	Family     = domain.Family
	Period     = domain.Period
	EntityID   = domain.EntityID
	InboxTask  = domain.InboxTask
	Workspace  = domain.Workspace
	Project    = domain.Project
	UpdateKind = domain.UpdateActionKind
)

// ParseTargets reads family names, rejecting ones outside allowed.
// An empty list selects every allowed family.
func ParseTargets(values []string, allowed []domain.Family) ([]domain.Family, error) {
	if len(values) == 0 {
		return slices.Clone(allowed), nil
	}
	out := make([]domain.Family, 0, len(values))
	for _, v := range values {
		f, err := domain.ParseFamily(v)
		if err != nil || !slices.Contains(allowed, f) {
			names := make([]string, 0, len(allowed))
			for _, a := range allowed {
				names = append(names, string(a))
			}
			return nil, &ValidationError{
				Field:   "target",
				Message: fmt.Sprintf("unsupported target %q (expected one of %s)", v, strings.Join(names, ", ")),
			}
		}
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out, nil
}

// ParsePeriods reads period names. An empty list selects every period.
func ParsePeriods(values []string) ([]domain.Period, error) {
	out := make([]domain.Period, 0, len(values))
	for _, v := range values {
		p, err := ValidateEnum("period", v, domain.AllPeriods)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
