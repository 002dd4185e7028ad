// Package version exposes the build version stamped at link time.
package version

// value is overridden via -ldflags at build time.
var value = "dev"

// Value returns the build version.
func Value() string {
	return value
}
