// Package schemas provides the JSON Schema validation gate between the
// untrusted AI parsing output and the rendering engine. Raw payloads are
// checked structurally against an embedded schema, then decoded into the
// typed document tree. The rendering engine must never be called with a
// payload that did not pass through Validate.
package schemas

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/bobbyapp/cv-transformer/internal/types"
)

//go:embed cv_document.schema.json
var cvDocumentSchema string

// compiled at init; the embedded schema is part of the build, so a compile
// failure is a programming error.
var compiledSchema *gojsonschema.Schema

func init() {
	var err error
	compiledSchema, err = gojsonschema.NewSchema(gojsonschema.NewStringLoader(cvDocumentSchema))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded CV document schema: %v", err))
	}
}

// FieldError represents a single validation error at a specific location in
// the payload. Path uses dotted/indexed notation, e.g. "sections.2.content.0.text".
type FieldError struct {
	Path    string
	Message string
}

// ValidationError represents a schema validation failure with the full,
// ordered list of violations found (never just the first).
type ValidationError struct {
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Path, err.Message))
	}
	return sb.String()
}

// Summary returns a short user-facing message covering at most max
// violations, semicolon-joined. The full list stays available on Errors for
// diagnostic logging.
func (ve *ValidationError) Summary(max int) string {
	n := len(ve.Errors)
	if max > n {
		max = n
	}
	parts := make([]string, 0, max)
	for _, err := range ve.Errors[:max] {
		parts = append(parts, fmt.Sprintf("%s: %s", err.Path, err.Message))
	}
	msg := strings.Join(parts, "; ")
	if n > max {
		msg += fmt.Sprintf(" (and %d more)", n-max)
	}
	return msg
}

// Validate checks an untrusted JSON payload against the CV document schema
// and, on success, returns the fully-typed document. On failure the returned
// error is a *ValidationError enumerating every structural violation.
func Validate(raw []byte) (*types.CVDocument, error) {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &ValidationError{Errors: []FieldError{
			{Path: "(root)", Message: fmt.Sprintf("invalid JSON: %v", err)},
		}}
	}

	result, err := compiledSchema.Validate(gojsonschema.NewGoLoader(payload))
	if err != nil {
		return nil, fmt.Errorf("schema validation failed to run: %w", err)
	}

	if !result.Valid() {
		validationErr := &ValidationError{
			Errors: make([]FieldError, 0, len(result.Errors())),
		}
		for _, desc := range result.Errors() {
			validationErr.Errors = append(validationErr.Errors, FieldError{
				Path:    errorPath(desc),
				Message: desc.Description(),
			})
		}
		return nil, validationErr
	}

	doc, err := decodeDocument(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode validated payload: %w", err)
	}
	return doc, nil
}

// errorPath builds a dotted path to the offending location. For "required"
// errors gojsonschema reports the missing property name as the field and the
// parent object as the context, so the two are joined here.
func errorPath(desc gojsonschema.ResultError) string {
	path := strings.TrimPrefix(desc.Context().String("."), "(root)")
	path = strings.TrimPrefix(path, ".")

	if desc.Type() == "required" {
		if prop, ok := desc.Details()["property"].(string); ok {
			if path == "" {
				return prop
			}
			return path + "." + prop
		}
	}

	if path == "" {
		return "(root)"
	}
	return path
}
