// Package utils provides small helpers shared by the HTTP layer and the
// analyzers: query parsing for pagination and Unicode text normalization.
package utils

import (
	"strconv"
	"strings"
)

// AtoiDefault parses a query value such as "?page= 2 " into an int. Blank or
// malformed values yield def.
func AtoiDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
