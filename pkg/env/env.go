package env

import (
	"os"
	"slices"
	"strings"
)

// Get returns the trimmed value of key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// OneOf reads key case-insensitively and falls back when the value is not
// one of allowed.
func OneOf(key, fallback string, allowed ...string) string {
	val := strings.ToLower(Get(key, fallback))
	if slices.Contains(allowed, val) {
		return val
	}
	return fallback
}
