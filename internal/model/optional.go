package model

type optionalState uint8

const (
	optionalUnset optionalState = iota
	optionalCleared
	optionalSet
)

// Optional is a tri-state value holder for derivable command fields: never
// set (inherit the default), explicitly cleared (force the default even when
// deriving from a command that had a value), or set to a value.
//
// The zero value is the unset state.
type Optional[T any] struct {
	state optionalState
	value T
}

// Set returns an optional holding the given value.
func Set[T any](value T) Optional[T] {
	return Optional[T]{state: optionalSet, value: value}
}

// Cleared returns an optional that is explicitly cleared.
func Cleared[T any]() Optional[T] {
	return Optional[T]{state: optionalCleared}
}

// IsSet returns whether the optional holds a value.
func (o Optional[T]) IsSet() bool { return o.state == optionalSet }

// IsCleared returns whether the optional was explicitly cleared.
func (o Optional[T]) IsCleared() bool { return o.state == optionalCleared }

// IsUnset returns whether the optional was never touched.
func (o Optional[T]) IsUnset() bool { return o.state == optionalUnset }

// Value returns the held value and whether one is set.
func (o Optional[T]) Value() (T, bool) {
	if o.state != optionalSet {
		var zero T
		return zero, false
	}
	return o.value, true
}

// Or returns the held value, or fallback when none is set.
func (o Optional[T]) Or(fallback T) T {
	if o.state != optionalSet {
		return fallback
	}
	return o.value
}
