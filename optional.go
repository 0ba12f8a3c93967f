package surgsim

import "fmt"

// Optional is a value that may be unset.
type Optional[T comparable] struct {
	value    T
	hasValue bool
}

// Some returns an Optional holding value.
func Some[T comparable](value T) Optional[T] {
	return Optional[T]{value: value, hasValue: true}
}

func (o Optional[T]) HasValue() bool { return o.hasValue }

// Value returns the held value. It panics when o is unset.
func (o Optional[T]) Value() T {
	if !o.hasValue {
		panic(fmt.Sprintf("surgsim: unset optional %T", o.value))
	}
	return o.value
}

// Get returns the held value and whether o is set.
func (o Optional[T]) Get() (T, bool) { return o.value, o.hasValue }

func (o *Optional[T]) SetValue(value T) {
	o.value = value
	o.hasValue = true
}

func (o *Optional[T]) Invalidate() {
	var zero T
	o.value = zero
	o.hasValue = false
}

// Equal reports whether o and other are both unset or hold equal values.
func (o Optional[T]) Equal(other Optional[T]) bool {
	if o.hasValue != other.hasValue {
		return false
	}
	return !o.hasValue || o.value == other.value
}
