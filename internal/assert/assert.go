// Package assert checks invariants on values the program produced itself.
// A failed check is a bug, so it panics instead of returning an error.
package assert

import (
	"fmt"
)

// Length panics unless value is exactly expected bytes long
func Length(name, value string, expected int) {
	if len(value) != expected {
		panic(fmt.Sprintf("assert.Length %s: expected %d actual %d", name, expected, len(value)))
	}
}

// True panics with the formatted message unless cond holds
func True(cond bool, format string, args ...any) {
	if !cond {
		panic("assert.True: " + fmt.Sprintf(format, args...))
	}
}
