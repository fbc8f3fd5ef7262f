package openapi

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/oastypes/oastypes/internal/domain"
	"github.com/oastypes/oastypes/internal/naming"
)

// DefinitionGenerator implements the usecase.DefinitionGenerator interface
// for OpenAPI documents: it walks components/schemas once, in declaration
// order, and accumulates typed definitions plus the nullable registry.
type DefinitionGenerator struct {
	logger *slog.Logger
	strict bool
}

// NewDefinitionGenerator creates a new OpenAPI DefinitionGenerator. In
// strict mode unsupported schema shapes fail the pass instead of being
// skipped with a warning.
func NewDefinitionGenerator(logger *slog.Logger, strict bool) *DefinitionGenerator {
	return &DefinitionGenerator{
		logger: logger.With("component", "openapi_generator"),
		strict: strict,
	}
}

// expansion carries the accumulators of one pass. They are threaded by
// exclusive access down the recursive expansion; nothing here is shared
// between invocations.
type expansion struct {
	defs     *domain.DefinitionSet
	nullable *domain.NullableRegistry
	order    *docOrder
	skipped  int
}

// Generate runs the single-pass tree walk over the document's named
// component schemas and returns every emitted definition together with the
// registry of inferred-nullable schema names.
func (g *DefinitionGenerator) Generate(schema domain.APISchema) (*domain.GenerationResult, error) {
	log := g.logger.With(slog.String("source", schema.Source))
	log.Info("Generating type definitions from OpenAPI schema.")

	doc := schema.Doc
	if doc == nil {
		return nil, fmt.Errorf("missing parsed OpenAPI document for %s", schema.Source)
	}

	order, err := parseDocOrder(schema.RawData)
	if err != nil {
		return nil, err
	}

	st := &expansion{
		defs:     domain.NewDefinitionSet(),
		nullable: domain.NewNullableRegistry(),
		order:    order,
	}

	names := order.schemas
	if len(names) == 0 && doc.Components != nil {
		// Raw bytes carried no components section the sidecar could read;
		// fall back to the parsed map with a stable ordering.
		for name := range doc.Components.Schemas {
			names = append(names, name)
		}
		sort.Strings(names)
		if len(names) > 0 {
			log.Warn("Document order unavailable, falling back to sorted schema names.")
		}
	}

	for _, name := range names {
		if doc.Components == nil {
			break
		}
		ref, ok := doc.Components.Schemas[name]
		if !ok || ref == nil {
			continue
		}
		if ref.Ref != "" {
			// A top-level entry that is itself a reference adds no new type.
			continue
		}
		if err := g.expandSchema(log, st, name, name, ref.Value); err != nil {
			return nil, err
		}
	}

	// Second pass: now that the registry is complete, any field referencing
	// a registered-nullable schema becomes nullable itself. Running this
	// after the walk removes the collect-before-consume ordering hazard.
	g.resolveRegisteredNullability(st)

	log.Info("Finished generating type definitions.",
		slog.Int("definition_count", st.defs.Len()),
		slog.Int("skipped_count", st.skipped),
		slog.Int("nullable_count", st.nullable.Len()))

	return &domain.GenerationResult{
		Definitions: st.defs.Definitions(),
		Nullable:    st.nullable,
	}, nil
}

// expandSchema classifies one named schema node and dispatches into the
// matching expander. name is the document-given (or synthesized) identity;
// orderKey addresses the declaration-order sidecar.
func (g *DefinitionGenerator) expandSchema(log *slog.Logger, st *expansion, name, orderKey string, sch *openapi3.Schema) error {
	if sch == nil {
		return nil
	}
	ident := naming.TypeName(name)
	doc := schemaDoc(sch)

	switch {
	case len(sch.AllOf) > 0:
		return g.expandAllOf(log, st, ident, doc, sch.AllOf)
	case len(sch.AnyOf) > 0:
		// Covers both declared anyOf schemas and untyped wrappers that
		// carry a non-empty anyOf list.
		return g.expandAnyOf(log, st, name, doc, sch.AnyOf)
	case typeIs(sch, "string"):
		if len(sch.Enum) == 0 {
			return st.defs.Add(domain.Definition{
				Name:  ident,
				Kind:  domain.KindAlias,
				Doc:   doc,
				Alias: refPtr(domain.PrimRef(domain.PrimString)),
			})
		}
		return g.expandEnum(st, ident, doc, sch)
	case typeIs(sch, "object"):
		return g.expandObject(log, st, ident, orderKey, doc, sch)
	case typeIs(sch, "array"):
		return g.expandArray(log, st, name, orderKey, doc, sch)
	case typeIs(sch, "boolean"):
		return st.defs.Add(domain.Definition{
			Name:  ident,
			Kind:  domain.KindAlias,
			Doc:   doc,
			Alias: refPtr(domain.PrimRef(domain.PrimBool)),
		})
	case sch.Type == nil || len(*sch.Type) == 0:
		// Untyped schema without anyOf: produces no definition.
		return nil
	default:
		return g.skip(log, st, "unsupported top-level schema kind",
			slog.String("schema", name), slog.String("kind", typeName(sch)))
	}
}

// expandEnum emits a sum type whose variants are the enumerated string
// constants, in document order. Non-string sentinels in the enumeration
// cannot carry a wire tag and produce no variant.
func (g *DefinitionGenerator) expandEnum(st *expansion, ident string, doc []string, sch *openapi3.Schema) error {
	variants := make([]domain.VariantSpec, 0, len(sch.Enum))
	for _, v := range sch.Enum {
		s, ok := v.(string)
		if !ok {
			continue
		}
		variants = append(variants, domain.VariantSpec{
			Tag:   s,
			Ident: naming.VariantName(s),
		})
	}
	return st.defs.Add(domain.Definition{
		Name:     ident,
		Kind:     domain.KindSum,
		Doc:      doc,
		Variants: variants,
	})
}

// expandArray emits an alias to a sequence. A referenced item type is used
// directly; an inline item schema first synthesizes an auxiliary
// "<Name>Item" definition so it exists before the alias references it. An
// array without an item schema produces no definition.
func (g *DefinitionGenerator) expandArray(log *slog.Logger, st *expansion, name, orderKey string, doc []string, sch *openapi3.Schema) error {
	if sch.Items == nil {
		log.Debug("Array schema has no items, producing no definition.", slog.String("schema", name))
		return nil
	}
	ident := naming.TypeName(name)

	var itemIdent string
	if sch.Items.Ref != "" {
		resolved, err := ResolveLocalRef(sch.Items.Ref)
		if err != nil {
			return err
		}
		itemIdent = naming.TypeName(resolved)
	} else {
		itemName := ident + "Item"
		if err := g.expandSchema(log, st, itemName, orderKey+"/items", sch.Items.Value); err != nil {
			return err
		}
		itemIdent = itemName
	}

	return st.defs.Add(domain.Definition{
		Name:  ident,
		Kind:  domain.KindAlias,
		Doc:   doc,
		Alias: refPtr(domain.SliceRef(domain.NamedRef(itemIdent))),
	})
}

// expandObject emits a product type with one field per declared property,
// in document order. Referenced properties keep their resolved type name;
// inline properties are classified and dropped (or rejected in strict mode)
// when they are not a representable primitive. A field's final nullability
// is declared-nullable OR not-required.
func (g *DefinitionGenerator) expandObject(log *slog.Logger, st *expansion, ident, orderKey string, doc []string, sch *openapi3.Schema) error {
	fields := make([]domain.FieldSpec, 0, len(sch.Properties))

	for _, propName := range g.propertyOrder(log, st, orderKey, sch) {
		prop, ok := sch.Properties[propName]
		if !ok || prop == nil {
			continue
		}

		if prop.Ref != "" {
			resolved, err := ResolveLocalRef(prop.Ref)
			if err != nil {
				return err
			}
			fields = append(fields, domain.FieldSpec{
				Name: propName,
				Type: domain.NamedRef(naming.TypeName(resolved)),
			})
			continue
		}

		item := prop.Value
		if item == nil {
			continue
		}
		fieldDoc := schemaDoc(item)
		isTimestamp := strings.Contains(item.Description, "timestamp")

		var (
			fieldType domain.TypeRef
			codec     domain.Codec
			supported = true
		)
		switch {
		case typeIs(item, "string") && len(item.Enum) == 0:
			fieldType = domain.PrimRef(domain.PrimString)
		case typeIs(item, "number"):
			fieldType = domain.PrimRef(domain.PrimFloat64)
		case typeIs(item, "integer"):
			switch {
			case isTimestamp:
				fieldType = domain.PrimRef(domain.PrimTimestamp)
				codec = domain.CodecEpochSeconds
			case item.Min != nil && *item.Min > 0:
				fieldType = domain.PrimRef(domain.PrimUint64)
			default:
				fieldType = domain.PrimRef(domain.PrimInt64)
			}
		case typeIs(item, "boolean"):
			fieldType = domain.PrimRef(domain.PrimBool)
		default:
			supported = false
		}

		if !supported {
			if err := g.skip(log, st, "unsupported inline property",
				slog.String("type", ident), slog.String("property", propName),
				slog.String("kind", typeName(item))); err != nil {
				return err
			}
			continue
		}

		fields = append(fields, domain.FieldSpec{
			Name:     propName,
			Type:     fieldType,
			Nullable: item.Nullable,
			Codec:    codec,
			Doc:      fieldDoc,
		})
	}

	for i := range fields {
		required := false
		for _, r := range sch.Required {
			if r == fields[i].Name {
				required = true
				break
			}
		}
		fields[i].Nullable = fields[i].Nullable || !required
	}

	return st.defs.Add(domain.Definition{
		Name:   ident,
		Kind:   domain.KindStruct,
		Doc:    doc,
		Fields: fields,
	})
}

// expandAnyOf emits one sum type from an ordered branch list. Null-type
// branches feed the nullable registry and produce no variant; inline
// enum-string branches flatten their constants into the enclosing sum
// (forwarding their documentation); reference branches become newtype-style
// payload variants. Branch order is preserved in the variant list.
func (g *DefinitionGenerator) expandAnyOf(log *slog.Logger, st *expansion, name string, doc []string, branches openapi3.SchemaRefs) error {
	var variants []domain.VariantSpec

	for _, branch := range branches {
		if branch == nil {
			continue
		}
		if branch.Ref != "" {
			resolved, err := ResolveLocalRef(branch.Ref)
			if err != nil {
				return err
			}
			ident := naming.TypeName(resolved)
			payload := domain.NamedRef(ident)
			variants = append(variants, domain.VariantSpec{
				Tag:     resolved,
				Ident:   ident,
				Payload: &payload,
			})
			continue
		}

		item := branch.Value
		if item == nil {
			continue
		}
		if typeIs(item, "null") {
			st.nullable.Add(name)
			continue
		}
		if typeIs(item, "string") && len(item.Enum) > 0 {
			doc = append(doc, schemaDoc(item)...)
			for _, v := range item.Enum {
				s, ok := v.(string)
				if !ok {
					continue
				}
				variants = append(variants, domain.VariantSpec{
					Tag:   s,
					Ident: naming.VariantName(s),
				})
			}
			continue
		}
		if err := g.skip(log, st, "unsupported inline anyOf branch",
			slog.String("schema", name), slog.String("kind", typeName(item))); err != nil {
			return err
		}
	}

	return st.defs.Add(domain.Definition{
		Name:     naming.TypeName(name),
		Kind:     domain.KindSum,
		Doc:      doc,
		Variants: variants,
	})
}

// expandAllOf emits a product type with one flattened field per reference
// branch, in branch order. Field names are the snake-cased resolved type
// names; collisions between flattened field sets are a wire-format concern
// left to the serializer. Inline branches are not representable.
func (g *DefinitionGenerator) expandAllOf(log *slog.Logger, st *expansion, ident string, doc []string, branches openapi3.SchemaRefs) error {
	var fields []domain.FieldSpec

	for _, branch := range branches {
		if branch == nil {
			continue
		}
		if branch.Ref == "" {
			if err := g.skip(log, st, "unsupported inline allOf branch",
				slog.String("type", ident)); err != nil {
				return err
			}
			continue
		}
		resolved, err := ResolveLocalRef(branch.Ref)
		if err != nil {
			return err
		}
		resolvedName := naming.TypeName(resolved)
		fields = append(fields, domain.FieldSpec{
			Name:    naming.SnakeCase(resolvedName),
			Type:    domain.NamedRef(resolvedName),
			Flatten: true,
		})
	}

	return st.defs.Add(domain.Definition{
		Name:   ident,
		Kind:   domain.KindStruct,
		Doc:    doc,
		Fields: fields,
	})
}

// resolveRegisteredNullability is the second phase of the pass: with the
// registry fully collected, every struct field whose type names a
// registered schema is marked nullable.
func (g *DefinitionGenerator) resolveRegisteredNullability(st *expansion) {
	defs := st.defs.Definitions()
	for i := range defs {
		if defs[i].Kind != domain.KindStruct {
			continue
		}
		for j := range defs[i].Fields {
			f := &defs[i].Fields[j]
			if f.Flatten || f.Type.Named == "" {
				continue
			}
			if st.nullable.Contains(f.Type.Named) {
				f.Nullable = true
			}
		}
	}
}

// propertyOrder returns the declared property order for a schema, falling
// back to the parsed map's sorted keys when the sidecar has none.
func (g *DefinitionGenerator) propertyOrder(log *slog.Logger, st *expansion, orderKey string, sch *openapi3.Schema) []string {
	if names := st.order.propOrder(orderKey); names != nil {
		return names
	}
	if len(sch.Properties) == 0 {
		return nil
	}
	names := make([]string, 0, len(sch.Properties))
	for name := range sch.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	log.Debug("Property order unavailable, using sorted keys.", slog.String("order_key", orderKey))
	return names
}

// skip applies the unsupported-shape policy: warn and count by default,
// fail in strict mode.
func (g *DefinitionGenerator) skip(log *slog.Logger, st *expansion, reason string, attrs ...any) error {
	if g.strict {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedSchema, reason)
	}
	st.skipped++
	log.Warn("Skipping "+reason+".", attrs...)
	return nil
}

// schemaDoc forwards a schema's title and description as documentation.
func schemaDoc(sch *openapi3.Schema) []string {
	var doc []string
	if sch.Title != "" {
		doc = append(doc, sch.Title)
	}
	if sch.Description != "" {
		doc = append(doc, sch.Description)
	}
	return doc
}

// typeIs reports whether the schema declares exactly the given type.
func typeIs(sch *openapi3.Schema, t string) bool {
	return sch.Type != nil && sch.Type.Is(t)
}

// typeName renders the declared type for log messages.
func typeName(sch *openapi3.Schema) string {
	if sch.Type == nil || len(*sch.Type) == 0 {
		return "untyped"
	}
	return strings.Join(*sch.Type, ",")
}

func refPtr(r domain.TypeRef) *domain.TypeRef { return &r }
