// Package assert holds the invariant checks of the encoder internals.
// A failed check is a programmer error, never an input error.
package assert

import (
	"fmt"
	"runtime/debug"
)

func Assert(condition bool) {
	if !condition {
		s := debug.Stack()

		panic("assertion failed:\n" + string(s))
	}
}

// Assertf is Assert with a formatted description of the broken invariant.
func Assertf(condition bool, format string, args ...any) {
	if !condition {
		s := debug.Stack()

		panic("assertion failed: " + fmt.Sprintf(format, args...) + "\n" + string(s))
	}
}
