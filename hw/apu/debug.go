//go:build nsfdebug

package apu

import "fmt"

// invariant panics if cond is false.
func invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
