package ptr

// String returns a pointer to s.
func String(s string) *string {
	return &s
}

// Deref returns the value p points to, or the zero value when p is nil.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
