package domain

// UpdateActionKind selects what an update does to a field
type UpdateActionKind int

const (
	UpdateKeep UpdateActionKind = iota
	UpdateSet
	UpdateClear
)

// UpdateAction describes a change to one field in an update command
type UpdateAction[T any] struct {
	kind  UpdateActionKind
	value T
}

// Keep leaves the field untouched
func Keep[T any]() UpdateAction[T] {
	return UpdateAction[T]{kind: UpdateKeep}
}

// Set replaces the field value
func Set[T any](v T) UpdateAction[T] {
	return UpdateAction[T]{kind: UpdateSet, value: v}
}

// Clear resets the field to its zero value
func Clear[T any]() UpdateAction[T] {
	return UpdateAction[T]{kind: UpdateClear}
}

// Kind returns the action kind
func (a UpdateAction[T]) Kind() UpdateActionKind {
	return a.kind
}

// ShouldChange reports whether the action touches the field
func (a UpdateAction[T]) ShouldChange() bool {
	return a.kind != UpdateKeep
}

// Apply computes the new field value from the current one
func (a UpdateAction[T]) Apply(current T) T {
	switch a.kind {
	case UpdateSet:
		return a.value
	case UpdateClear:
		var zero T
		return zero
	default:
		return current
	}
}
