//go:build !statsview
// +build !statsview

package statsview

import (
	"strings"
	"testing"
)

func TestUnavailable(t *testing.T) {
	if Available() {
		t.Error("statsview available without build tag")
	}
	var sb strings.Builder
	Launch(&sb)
	if !strings.Contains(sb.String(), "not available") {
		t.Errorf("Bad launch message: %q", sb.String())
	}
}
