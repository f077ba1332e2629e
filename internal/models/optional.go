package models

import "encoding/json"

// Optional records whether a JSON key was present at all, and whether it was an explicit null.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

func Some[T any](value T) Optional[T] {
	return Optional[T]{Value: value, Set: true}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set && !o.Null
}

// UnmarshalJSON only runs for keys present in the document, which is what marks the field as set.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		var zero T
		o.Value = zero
		o.Null = true
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
