package memutils

import (
	cerrors "github.com/cockroachdb/errors"
	"github.com/pkg/errors"
)

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")

// Assertf panics with an assertion failure when condition is false. It is used for caller
// contract violations, which indicate a bug at the call site and are never reported as
// error values.
func Assertf(condition bool, format string, args ...any) {
	if !condition {
		panic(cerrors.AssertionFailedf(format, args...))
	}
}

// AssertPow2 panics if alignment is not a power of two
func AssertPow2(alignment uint, name string) {
	if err := CheckPow2(alignment, name); err != nil {
		panic(cerrors.NewAssertionErrorWithWrappedErrf(err, "contract violation"))
	}
}

// AssertSize panics if size is not a positive allocation size
func AssertSize(size int) {
	if size <= 0 {
		panic(cerrors.AssertionFailedf("allocation size must be positive, got %d", size))
	}
}
