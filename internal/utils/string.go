package utils

import (
	"fmt"
	"strings"
)

func EnsureSuffix(s, suffix string) string {
	if strings.HasSuffix(s, suffix) {
		return s
	}
	return s + suffix
}

// SanitizeName lowercases s and replaces every rune outside [a-z0-9_.-]
// with a dash.
func SanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
			return r
		}
		return '-'
	}, s)
}

// CopyName returns the n-th candidate name for a copy of name: "x-copy",
// then "x-copy-2", "x-copy-3" and so on.
func CopyName(name string, n int) string {
	if n <= 1 {
		return name + "-copy"
	}
	return fmt.Sprintf("%s-copy-%d", name, n)
}
