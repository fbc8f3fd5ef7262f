package domain

import "fmt"

// DefinitionKind discriminates the three shapes a generated type can take.
type DefinitionKind string

const (
	// KindAlias is an alias of a primitive or a sequence.
	KindAlias DefinitionKind = "alias"
	// KindSum is a tagged-alternative type: a string enumeration, an anyOf
	// union, or a mix of both.
	KindSum DefinitionKind = "sum"
	// KindStruct is a product type: an object or an allOf composition.
	KindStruct DefinitionKind = "struct"
)

// Primitive enumerates the representable scalar targets.
type Primitive string

const (
	PrimString    Primitive = "string"
	PrimBool      Primitive = "bool"
	PrimInt64     Primitive = "int64"
	PrimUint64    Primitive = "uint64"
	PrimFloat64   Primitive = "float64"
	PrimTimestamp Primitive = "timestamp" // epoch seconds on the wire
)

// TypeRef points at the target type of a field, variant payload, or alias.
// Exactly one of Named, Primitive, or Elem is meaningful.
type TypeRef struct {
	// Named references another emitted definition by its type name.
	Named string
	// Primitive is set for scalar targets.
	Primitive Primitive
	// Elem is set for sequences; the ref denotes a slice of Elem.
	Elem *TypeRef
}

// NamedRef builds a reference to an emitted definition.
func NamedRef(name string) TypeRef { return TypeRef{Named: name} }

// PrimRef builds a reference to a scalar target.
func PrimRef(p Primitive) TypeRef { return TypeRef{Primitive: p} }

// SliceRef builds a sequence-of reference.
func SliceRef(elem TypeRef) TypeRef { return TypeRef{Elem: &elem} }

// Codec selects a non-default wire serializer for a field.
type Codec string

const (
	CodecNone Codec = ""
	// CodecEpochSeconds serializes a timestamp as integer Unix seconds.
	CodecEpochSeconds Codec = "epoch-seconds"
)

// FieldSpec is one field of a product type. Name is the wire name and is
// never rewritten; the in-code identifier is derived from it at render time.
type FieldSpec struct {
	Name     string
	Type     TypeRef
	Nullable bool
	// Flatten merges the referenced type's own fields into the parent's
	// wire representation (allOf composition).
	Flatten bool
	Codec   Codec
	Doc     []string
}

// VariantSpec is one alternative of a sum type. A nil Payload means a bare
// constant carrying only its wire tag.
type VariantSpec struct {
	// Tag is the wire string, exactly as it appears in the document.
	Tag string
	// Ident is the target-language identifier derived from Tag.
	Ident string
	// Payload, when set, embeds the full referenced value (newtype-style).
	Payload *TypeRef
}

// Bare reports whether the variant carries no payload.
func (v VariantSpec) Bare() bool { return v.Payload == nil }

// Definition is a terminal artifact of one generation pass. It is created
// once per processed schema (or synthesized auxiliary schema) and owned by
// the DefinitionSet for the remainder of the pass.
type Definition struct {
	Name string
	Kind DefinitionKind
	Doc  []string

	Alias    *TypeRef      // KindAlias
	Variants []VariantSpec // KindSum, in document order
	Fields   []FieldSpec   // KindStruct, in document order
}

// NullableRegistry records schema names discovered to have an explicit null
// branch inside an anyOf. A name enters at most once; membership is
// consulted by the second nullability pass after expansion completes.
type NullableRegistry struct {
	names map[string]struct{}
	order []string
}

// NewNullableRegistry returns an empty registry.
func NewNullableRegistry() *NullableRegistry {
	return &NullableRegistry{names: make(map[string]struct{})}
}

// Add records a schema name. Re-adding an existing name is a no-op.
func (r *NullableRegistry) Add(name string) {
	if _, ok := r.names[name]; ok {
		return
	}
	r.names[name] = struct{}{}
	r.order = append(r.order, name)
}

// Contains reports membership.
func (r *NullableRegistry) Contains(name string) bool {
	_, ok := r.names[name]
	return ok
}

// Names returns the registered names in insertion order.
func (r *NullableRegistry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered names.
func (r *NullableRegistry) Len() int { return len(r.order) }

// DefinitionSet accumulates emitted definitions in insertion order while
// enforcing the single-writer-per-name invariant: document-declared and
// synthesized names share one namespace, and a duplicate insert is an error.
type DefinitionSet struct {
	byName map[string]int
	defs   []Definition
}

// NewDefinitionSet returns an empty accumulator.
func NewDefinitionSet() *DefinitionSet {
	return &DefinitionSet{byName: make(map[string]int)}
}

// Add appends a definition. It fails with ErrDuplicateDefinition when the
// name has already been written, naming the colliding definition.
func (s *DefinitionSet) Add(def Definition) error {
	if _, ok := s.byName[def.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateDefinition, def.Name)
	}
	s.byName[def.Name] = len(s.defs)
	s.defs = append(s.defs, def)
	return nil
}

// Definitions returns the accumulated definitions in insertion order. The
// returned slice is the set's backing storage; callers treat it read-only.
func (s *DefinitionSet) Definitions() []Definition { return s.defs }

// Len returns the number of accumulated definitions.
func (s *DefinitionSet) Len() int { return len(s.defs) }

// GenerationResult is everything one pass over a document produces: the
// ordered definitions plus the side registry of inferred-nullable names.
type GenerationResult struct {
	Definitions []Definition
	Nullable    *NullableRegistry
}
