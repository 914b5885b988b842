package dw

import (
	"github.com/ianlancetaylor/demangle"
)

// Demangle returns the source-level form of a mangled linkage name.
// Names that do not demangle (including the empty string) return
// ok=false.
func Demangle(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	s, err := demangle.ToString(name)
	if err != nil {
		return "", false
	}
	return s, true
}
