package dashboard

import "fmt"

// unknownParamError signals an unrecognized parameter kind (maps to 400).
type unknownParamError struct{ kind string }

func (e unknownParamError) Error() string { return "unknown parameter kind: " + e.kind }

// ErrUnknownParam constructs an unknownParamError.
func ErrUnknownParam(kind string) error { return unknownParamError{kind: kind} }

// IsUnknownParam reports whether err indicates an unrecognized parameter kind.
func IsUnknownParam(err error) bool {
	_, ok := err.(unknownParamError)
	return ok
}

// unknownEventError signals an unrecognized event kind (maps to 400).
type unknownEventError struct{ kind string }

func (e unknownEventError) Error() string { return "unknown event kind: " + e.kind }

// ErrUnknownEvent constructs an unknownEventError.
func ErrUnknownEvent(kind string) error { return unknownEventError{kind: kind} }

// IsUnknownEvent reports whether err indicates an unrecognized event kind.
func IsUnknownEvent(err error) bool {
	_, ok := err.(unknownEventError)
	return ok
}

// invalidCategoryError signals a manual override outside {0,1,2}.
type invalidCategoryError struct{ value int }

func (e invalidCategoryError) Error() string {
	return fmt.Sprintf("category out of range: %d", e.value)
}

// ErrInvalidCategory constructs an invalidCategoryError.
func ErrInvalidCategory(v int) error { return invalidCategoryError{value: v} }

// IsInvalidCategory reports whether err indicates an out-of-range category.
func IsInvalidCategory(err error) bool {
	_, ok := err.(invalidCategoryError)
	return ok
}
