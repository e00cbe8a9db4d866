package domain

// Optional is the result of a lookup that may legitimately find nothing.
// Callers switch on IsFound instead of matching a not-found error.
type Optional[T any] struct {
	value T
	found bool
}

// Found wraps a present value
func Found[T any](v T) Optional[T] {
	return Optional[T]{value: v, found: true}
}

// NotFound is the empty result
func NotFound[T any]() Optional[T] {
	return Optional[T]{}
}

// IsFound reports whether a value is present
func (o Optional[T]) IsFound() bool {
	return o.found
}

// Get returns the value and whether it was present
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.found
}

// OrElse returns the value or the fallback
func (o Optional[T]) OrElse(fallback T) T {
	if o.found {
		return o.value
	}
	return fallback
}
