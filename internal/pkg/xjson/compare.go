package xjson

import (
	"bytes"
	"encoding/json"

	"github.com/google/go-cmp/cmp"
)

// RawMessageComparer compares json.RawMessage values semantically: two
// messages are equal when they decode to the same value, regardless of key
// order or whitespace.
var RawMessageComparer = cmp.Comparer(func(x, y json.RawMessage) bool {
	xEmpty := len(bytes.TrimSpace(x)) == 0
	yEmpty := len(bytes.TrimSpace(y)) == 0

	if xEmpty || yEmpty {
		return xEmpty == yEmpty
	}

	var xv, yv any
	if json.Unmarshal(x, &xv) != nil || json.Unmarshal(y, &yv) != nil {
		return false
	}

	return cmp.Equal(xv, yv)
})

// Equal reports semantic equality of a and b, treating embedded
// json.RawMessage fields as JSON documents rather than byte slices.
func Equal(a, b any) bool {
	return cmp.Equal(a, b, RawMessageComparer)
}
