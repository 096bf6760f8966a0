// Package pdffill fills AcroForm templates from master data via the mapping
// registry. The Engine interface isolates the PDF toolkit so fill semantics
// stay testable without binary fixtures.
package pdffill

import "context"

// FieldType classifies a named form field by what it can accept.
type FieldType int

const (
	// FieldText accepts a text write.
	FieldText FieldType = iota
	// FieldCheckBox accepts a checked/unchecked state.
	FieldCheckBox
	// FieldOther covers controls the filler skips (radio groups, list boxes,
	// signatures). Skipping is silent per-field, never an error.
	FieldOther
)

// FormField is one named field declared by a template.
type FormField struct {
	Name string
	Type FieldType
}

// FieldValue is one write the filler wants applied to a template field.
type FieldValue struct {
	Name    string
	Type    FieldType
	Value   string
	Checked bool

	// Bold requests the attestation face at auto-fit size.
	Bold bool
}

// Engine abstracts the PDF toolkit operations the filler and assembler need.
type Engine interface {
	// Fields enumerates the named form fields declared by the template.
	Fields(ctx context.Context, template []byte) ([]FormField, error)

	// Fill writes the given values into a copy of the template.
	Fill(ctx context.Context, template []byte, values []FieldValue) ([]byte, error)

	// Lock renders the document non-editable (the "flatten" flag).
	Lock(ctx context.Context, doc []byte) ([]byte, error)

	// Merge concatenates documents page-wise, preserving order.
	Merge(ctx context.Context, docs [][]byte) ([]byte, error)
}
