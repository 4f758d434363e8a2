package xjson

import (
	"encoding/json"
	"fmt"
)

// MustMarshal marshals v and panics on failure. Only for values the caller
// knows are marshalable.
func MustMarshal(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("xjson: marshal %T: %w", v, err))
	}

	return raw
}

// MustMarshalString is MustMarshal returning a string.
func MustMarshalString(v any) string {
	return string(MustMarshal(v))
}

// To unmarshals raw into a value of type T.
func To[T any](raw []byte) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, err
	}

	return v, nil
}

// MustTo unmarshals raw into a value of type T and panics on failure.
func MustTo[T any](raw []byte) T {
	v, err := To[T](raw)
	if err != nil {
		panic(fmt.Errorf("xjson: unmarshal into %T: %w", v, err))
	}

	return v
}
