package models

import "encoding/json"

// Field is an optional request value that distinguishes "absent from the
// payload" from "present with a value" (including an explicit null).
// Partial updates only touch fields whose Set flag is true.
type Field[T any] struct {
	Value T
	Set   bool
}

// FieldOf builds a present Field, mainly for tests and internal callers.
func FieldOf[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

// UnmarshalJSON is only invoked for keys present in the payload, which is
// what makes the Set flag reliable. An explicit null yields the zero value.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if string(data) == "null" {
		var zero T
		f.Value = zero
		return nil
	}
	return json.Unmarshal(data, &f.Value)
}
