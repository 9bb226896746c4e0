package patch

import "fmt"

// ProgrammingError reports misuse of the patch engine, such as a nil target
// or unusable options. It is raised with panic: data-shape mismatches never
// produce one, they fall back to scalar overwrite.
type ProgrammingError struct {
	// Op is the operation that was misused ("patch", "options", ...)
	Op string

	// Message describes the misuse
	Message string
}

// Error implements the error interface.
func (e *ProgrammingError) Error() string {
	return fmt.Sprintf("patch: invalid %s: %s", e.Op, e.Message)
}
