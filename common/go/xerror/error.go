package xerror

// Unwrap returns t, panicking if e is not nil.
//
// Intended for test fixtures and static inputs known to be valid.
func Unwrap[T any](t T, e error) T {
	if e != nil {
		panic(e)
	}
	return t
}
