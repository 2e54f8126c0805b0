package utils

import (
	"os"
	"strings"
)

// FileExists checks if a file exists
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return !os.IsNotExist(err)
}

// SameAddress compares two hex account addresses ignoring case and an
// optional 0x prefix.
func SameAddress(a, b string) bool {
	a = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(a)), "0x")
	b = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(b)), "0x")
	return a != "" && a == b
}
