// Package env reads process environment variables with fallbacks. Config
// structs load through envconfig; this helper covers the few spots, like
// the logger, that need a value before the config is parsed.
package env

import "os"

// Get returns the variable's value, or fallback when it is unset or empty.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
