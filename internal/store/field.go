package store

// Field is a tri-state optional value for partial writes: a field may be
// absent (leave the column untouched), null (clear the column), or set to a
// concrete value. The zero Field is absent.
type Field[T any] struct {
	set   bool
	null  bool
	value T
}

// Set returns a Field holding a concrete value.
func Set[T any](v T) Field[T] {
	return Field[T]{set: true, value: v}
}

// Null returns a Field that clears the column.
func Null[T any]() Field[T] {
	return Field[T]{set: true, null: true}
}

// IsSet reports whether the field was supplied at all (value or null).
func (f Field[T]) IsSet() bool { return f.set }

// IsNull reports whether the field explicitly clears the column.
func (f Field[T]) IsNull() bool { return f.set && f.null }

// Value returns the concrete value; meaningful only when IsSet and not IsNull.
func (f Field[T]) Value() T { return f.value }

// Arg returns the value in SQL-argument form: nil for null, the value
// otherwise. Must not be called on an absent field.
func (f Field[T]) Arg() any {
	if f.null {
		return nil
	}
	return f.value
}
