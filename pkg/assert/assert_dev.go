//go:build !release

package assert

import "fmt"

// That panics with the formatted message when cond is false. Used for internal invariants of
// the order log that must never be violated by callers.
func That(cond bool, format string, args ...any) { //nolint:goprintffuncname // it's ok
	if !cond {
		panic(fmt.Sprintf("invariant violated: "+format, args...))
	}
}
