// Package util holds small generic helpers shared across packages.
package util

// Ptr returns a pointer to v, for optional config fields and literals
func Ptr[T any](v T) *T {
	return &v
}
