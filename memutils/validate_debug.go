//go:build debug_mem_utils

package memutils

import "unsafe"

const (
	// DebugChecks is true when memutils is built with the debug_mem_utils build tag. Pools use it
	// to decide whether freed slots should be filled with, and checked for, the magic value.
	DebugChecks bool = true
	// freedMagicValue is a 4-byte pattern copied over the payload of freed slots so that writes
	// through dangling pointers can be detected when the slot is handed out again
	freedMagicValue uint32 = 0x7F84E666
)

// WriteMagicValue writes an easy-to-identify marker across the size bytes found at the provided
// pointer and offset. Trailing bytes that do not fill a whole marker are left alone.
// This method no-ops unless the debug_mem_utils build tag is present.
func WriteMagicValue(data unsafe.Pointer, offset, size int) {
	dest := unsafe.Add(data, offset)
	count := size / int(unsafe.Sizeof(uint32(0)))
	for i := 0; i < count; i++ {
		*(*uint32)(dest) = freedMagicValue
		dest = unsafe.Add(dest, unsafe.Sizeof(uint32(0)))
	}
}

// ValidateMagicValue verifies that the easy-to-identify marker written by WriteMagicValue is still present.
// It returns true if the value is still present and false otherwise.
// This method no-ops unless the debug_mem_utils build tag is present.
func ValidateMagicValue(data unsafe.Pointer, offset, size int) bool {
	source := unsafe.Add(data, offset)
	count := size / int(unsafe.Sizeof(uint32(0)))
	for i := 0; i < count; i++ {
		if *(*uint32)(source) != freedMagicValue {
			return false
		}
		source = unsafe.Add(source, unsafe.Sizeof(uint32(0)))
	}

	return true
}

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_mem_utils build tag is present
func DebugValidate(validatable Validatable) {
	err := validatable.Validate()
	if err != nil {
		panic(err)
	}
}

// DebugCheckPow2 will verify that the numerical value passed in is a power of two, and panics if it is not.
// This method no-ops unless the debug_mem_utils build tag is present.
func DebugCheckPow2(value uint, name string) {
	err := CheckPow2(value, name)
	if err != nil {
		panic(err)
	}
}
