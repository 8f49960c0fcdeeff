package utils

// Value dereferences v, returning the zero value for a nil pointer. Used to
// read optional wire fields without nil checks at every call site.
func Value[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

// Ptr returns a pointer to v, for populating optional wire fields.
func Ptr[T any](v T) *T {
	return &v
}
