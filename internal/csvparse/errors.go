package csvparse

// StructuralError marks a failure in the shape of the uploaded file itself.
// It invalidates the whole payload before any row-level processing and is
// safe to show to end users.
type StructuralError struct {
	message string
}

func (e *StructuralError) Error() string {
	return e.message
}
