//go:build !debug_mem_utils

package memutils

import "unsafe"

const (
	// DebugChecks is true when memutils is built with the debug_mem_utils build tag. Pools use it
	// to decide whether freed slots should be filled with, and checked for, the magic value.
	DebugChecks bool = false
)

// WriteMagicValue writes an easy-to-identify marker across the size bytes found at the provided
// pointer and offset.
// This method no-ops unless the debug_mem_utils build tag is present.
func WriteMagicValue(data unsafe.Pointer, offset, size int) {
}

// ValidateMagicValue verifies that the easy-to-identify marker written by WriteMagicValue is still present.
// It returns true if the value is still present and false otherwise.
// This method no-ops unless the debug_mem_utils build tag is present.
func ValidateMagicValue(data unsafe.Pointer, offset, size int) bool {
	return true
}

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_mem_utils build tag is present
func DebugValidate(validatable Validatable) {
}

// DebugCheckPow2 will verify that the numerical value passed in is a power of two, and panics if it is not.
// This method no-ops unless the debug_mem_utils build tag is present.
func DebugCheckPow2(value uint, name string) {
}
