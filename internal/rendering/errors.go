// Package rendering turns a validated CV document and a template
// configuration into a DOCX binary. Rendering is a pure function of its
// inputs: no network access, no clock, and the same inputs always produce
// byte-identical output.
package rendering

import "fmt"

// RenderError represents a rendering failure. Rendering is all-or-nothing:
// when an error is returned, no partial document bytes are produced.
type RenderError struct {
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("render error: %s", e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
