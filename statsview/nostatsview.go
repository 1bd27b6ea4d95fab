//go:build !statsview
// +build !statsview

// Package statsview serves live Go runtime stats (heap, GC, goroutines) for
// long running simulations. It's only available when built with the
// statsview tag.
package statsview

import "io"

// Launch is a no-op without the statsview build tag.
func Launch(output io.Writer) {
	io.WriteString(output, "stats server not available (build with -tags statsview)\n")
}

// Available returns true if a statsview is available to launch.
func Available() bool {
	return false
}
