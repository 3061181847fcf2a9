package advice

// quotaExhaustedError signals the upstream API rejected the call with 429
// and the client is inside its cooldown window.
type quotaExhaustedError struct{ msg string }

func (e quotaExhaustedError) Error() string { return e.msg }

// ErrQuotaExhausted constructs a quotaExhaustedError.
func ErrQuotaExhausted(msg string) error { return quotaExhaustedError{msg: msg} }

// IsQuotaExhausted reports whether err indicates upstream rate limiting (return 429).
func IsQuotaExhausted(err error) bool {
	_, ok := err.(quotaExhaustedError)
	return ok
}

// unavailableError signals the upstream API could not be reached or returned
// an unusable response, so the HTTP layer can return 503 instead of 500.
type unavailableError struct{ msg string }

func (e unavailableError) Error() string { return e.msg }

// ErrUnavailable constructs an unavailableError.
func ErrUnavailable(msg string) error { return unavailableError{msg: msg} }

// IsUnavailable reports whether err indicates the advice backend is unreachable.
func IsUnavailable(err error) bool {
	_, ok := err.(unavailableError)
	return ok
}
