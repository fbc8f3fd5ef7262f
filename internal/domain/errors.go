package domain

import "errors"

// Standard errors surfaced by the generation pass. Every one of them is
// fatal: the pass aborts with no partial output.
var (
	// ErrInvalidReference marks a schema reference that does not use the
	// local "#/components/schemas/<Name>" form.
	ErrInvalidReference = errors.New("invalid schema reference")

	// ErrDuplicateDefinition marks a collision between a document-declared
	// name and another declared or synthesized name.
	ErrDuplicateDefinition = errors.New("duplicate definition name")

	// ErrUnsupportedSchema marks a schema shape the generator cannot
	// represent. It is returned only in strict mode; the default policy is
	// to warn and skip.
	ErrUnsupportedSchema = errors.New("unsupported schema shape")
)
