// Package gosrc renders accumulated definitions into a single gofmt-ed Go
// source file with precise JSON wire contracts: struct tags carry the
// untransformed wire names, flattened allOf members become embedded fields,
// bare sum types become string enumerations, and mixed sums get generated
// MarshalJSON/UnmarshalJSON codecs.
package gosrc

import (
	"fmt"
	"go/format"
	"log/slog"
	"strings"

	"github.com/oastypes/oastypes/internal/domain"
	"github.com/oastypes/oastypes/internal/naming"
)

// Renderer implements the usecase.Renderer interface.
type Renderer struct {
	logger *slog.Logger
}

// NewRenderer creates a new Go source renderer.
func NewRenderer(logger *slog.Logger) *Renderer {
	return &Renderer{logger: logger.With("component", "gosrc_renderer")}
}

// Render assembles the definitions into one Go file. Output is
// deterministic: the same result and package name yield byte-identical
// source.
func (r *Renderer) Render(result *domain.GenerationResult, pkg string) ([]byte, error) {
	var b strings.Builder

	needs := scanNeeds(result.Definitions)

	b.WriteString("// Code generated by oastypes. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", pkg)

	var imports []string
	if needs.json {
		imports = append(imports, "encoding/json")
	}
	if needs.fmt {
		imports = append(imports, "fmt")
	}
	if needs.time {
		imports = append(imports, "time")
	}
	switch len(imports) {
	case 0:
	case 1:
		fmt.Fprintf(&b, "import %q\n\n", imports[0])
	default:
		b.WriteString("import (\n")
		for _, imp := range imports {
			fmt.Fprintf(&b, "\t%q\n", imp)
		}
		b.WriteString(")\n\n")
	}

	if needs.time {
		b.WriteString(epochSecondsHelper)
	}

	for _, def := range result.Definitions {
		if err := r.renderDefinition(&b, def); err != nil {
			return nil, err
		}
	}

	src, err := format.Source([]byte(b.String()))
	if err != nil {
		// The builder produced text gofmt rejects: a synthesis bug, fatal.
		r.logger.Error("Generated source does not format.", slog.Any("error", err))
		return nil, fmt.Errorf("generated source for package %s does not format: %w", pkg, err)
	}
	return src, nil
}

func (r *Renderer) renderDefinition(b *strings.Builder, def domain.Definition) error {
	writeDoc(b, def.Doc)
	switch def.Kind {
	case domain.KindAlias:
		if def.Alias == nil {
			return fmt.Errorf("alias definition %s has no target", def.Name)
		}
		fmt.Fprintf(b, "type %s = %s\n\n", def.Name, typeExpr(*def.Alias, false, domain.CodecNone))
		return nil
	case domain.KindSum:
		return r.renderSum(b, def)
	case domain.KindStruct:
		return r.renderStruct(b, def)
	default:
		return fmt.Errorf("definition %s has unknown kind %q", def.Name, def.Kind)
	}
}

// renderSum emits either a string enumeration (all variants bare) or a
// union struct with one pointer field per payload variant plus a codec.
func (r *Renderer) renderSum(b *strings.Builder, def domain.Definition) error {
	allBare := true
	for _, v := range def.Variants {
		if !v.Bare() {
			allBare = false
			break
		}
	}
	if allBare {
		fmt.Fprintf(b, "type %s string\n\n", def.Name)
		if len(def.Variants) > 0 {
			b.WriteString("const (\n")
			for _, v := range def.Variants {
				fmt.Fprintf(b, "\t%s%s %s = %q\n", def.Name, v.Ident, def.Name, v.Tag)
			}
			b.WriteString(")\n\n")
		}
		return nil
	}
	return r.renderUnion(b, def)
}

// renderUnion emits the mixed-sum shape: bare tags collapse into a Value
// field, each reference branch gets a pointer field, and the generated
// codec matches a bare tag string first, then tries each branch in
// declared order.
func (r *Renderer) renderUnion(b *strings.Builder, def domain.Definition) error {
	var bare, payload []domain.VariantSpec
	for _, v := range def.Variants {
		if v.Bare() {
			bare = append(bare, v)
		} else {
			payload = append(payload, v)
		}
	}

	fmt.Fprintf(b, "type %s struct {\n", def.Name)
	if len(bare) > 0 {
		b.WriteString("\t// Value holds one of the bare constant tags.\n")
		b.WriteString("\tValue *string\n")
	}
	for _, v := range payload {
		fmt.Fprintf(b, "\t%s *%s\n", v.Ident, typeExpr(*v.Payload, false, domain.CodecNone))
	}
	b.WriteString("}\n\n")

	// MarshalJSON
	fmt.Fprintf(b, "func (t %s) MarshalJSON() ([]byte, error) {\n", def.Name)
	if len(bare) > 0 {
		b.WriteString("\tif t.Value != nil {\n\t\treturn json.Marshal(*t.Value)\n\t}\n")
	}
	for _, v := range payload {
		fmt.Fprintf(b, "\tif t.%s != nil {\n\t\treturn json.Marshal(t.%s)\n\t}\n", v.Ident, v.Ident)
	}
	fmt.Fprintf(b, "\treturn nil, fmt.Errorf(\"cannot marshal empty %s\")\n}\n\n", def.Name)

	// UnmarshalJSON
	fmt.Fprintf(b, "func (t *%s) UnmarshalJSON(b []byte) error {\n", def.Name)
	if len(bare) > 0 {
		b.WriteString("\tvar s string\n")
		b.WriteString("\tif err := json.Unmarshal(b, &s); err == nil {\n")
		b.WriteString("\t\tswitch s {\n")
		tags := make([]string, len(bare))
		for i, v := range bare {
			tags[i] = fmt.Sprintf("%q", v.Tag)
		}
		fmt.Fprintf(b, "\t\tcase %s:\n", strings.Join(tags, ", "))
		b.WriteString("\t\t\tt.Value = &s\n\t\t\treturn nil\n")
		b.WriteString("\t\tdefault:\n")
		fmt.Fprintf(b, "\t\t\treturn fmt.Errorf(\"unknown %s value %%q\", s)\n", def.Name)
		b.WriteString("\t\t}\n\t}\n")
	}
	for _, v := range payload {
		ident := v.Ident
		fmt.Fprintf(b, "\t{\n\t\tvar v %s\n", typeExpr(*v.Payload, false, domain.CodecNone))
		fmt.Fprintf(b, "\t\tif err := json.Unmarshal(b, &v); err == nil {\n")
		fmt.Fprintf(b, "\t\t\tt.%s = &v\n\t\t\treturn nil\n\t\t}\n\t}\n", ident)
	}
	fmt.Fprintf(b, "\treturn fmt.Errorf(\"cannot unmarshal %s\")\n}\n\n", def.Name)
	return nil
}

func (r *Renderer) renderStruct(b *strings.Builder, def domain.Definition) error {
	fmt.Fprintf(b, "type %s struct {\n", def.Name)
	for _, f := range def.Fields {
		if f.Flatten {
			// Embedding promotes the member's fields onto the parent's
			// wire representation.
			fmt.Fprintf(b, "\t%s\n", typeExpr(f.Type, false, domain.CodecNone))
			continue
		}
		writeFieldDoc(b, f.Doc)
		ident, err := naming.FieldName(f.Name)
		if err != nil {
			return fmt.Errorf("type %s: %w", def.Name, err)
		}
		tag := f.Name
		if f.Nullable {
			tag += ",omitempty"
		}
		fmt.Fprintf(b, "\t%s %s `json:%q`\n", ident, typeExpr(f.Type, f.Nullable, f.Codec), tag)
	}
	b.WriteString("}\n\n")
	return nil
}

// typeExpr renders a type reference. Nullable fields become pointers so an
// absent value round-trips as absent.
func typeExpr(ref domain.TypeRef, nullable bool, codec domain.Codec) string {
	var base string
	switch {
	case ref.Named != "":
		base = ref.Named
	case ref.Elem != nil:
		base = "[]" + typeExpr(*ref.Elem, false, domain.CodecNone)
	case ref.Primitive == domain.PrimTimestamp:
		if codec == domain.CodecEpochSeconds {
			base = "EpochSeconds"
		} else {
			base = "time.Time"
		}
	default:
		base = string(ref.Primitive)
	}
	if nullable {
		return "*" + base
	}
	return base
}

type needSet struct {
	time, json, fmt bool
}

// scanNeeds decides the import block and whether the EpochSeconds helper is
// emitted, from what the definitions actually use.
func scanNeeds(defs []domain.Definition) needSet {
	var n needSet
	for _, def := range defs {
		if def.Kind == domain.KindSum {
			for _, v := range def.Variants {
				if !v.Bare() {
					n.json = true
					n.fmt = true
				}
			}
		}
		if def.Alias != nil {
			n.scanRef(*def.Alias)
		}
		for _, f := range def.Fields {
			n.scanRef(f.Type)
		}
	}
	return n
}

func (n *needSet) scanRef(ref domain.TypeRef) {
	if ref.Primitive == domain.PrimTimestamp {
		n.time = true
		n.json = true
	}
	if ref.Elem != nil {
		n.scanRef(*ref.Elem)
	}
}

func writeDoc(b *strings.Builder, doc []string) {
	for _, entry := range doc {
		for _, line := range strings.Split(strings.TrimRight(entry, "\n"), "\n") {
			fmt.Fprintf(b, "// %s\n", line)
		}
	}
}

func writeFieldDoc(b *strings.Builder, doc []string) {
	for _, entry := range doc {
		for _, line := range strings.Split(strings.TrimRight(entry, "\n"), "\n") {
			fmt.Fprintf(b, "\t// %s\n", line)
		}
	}
}

const epochSecondsHelper = `// EpochSeconds is a point in time carried on the wire as integer Unix
// seconds.
type EpochSeconds time.Time

func (t EpochSeconds) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).Unix())
}

func (t *EpochSeconds) UnmarshalJSON(b []byte) error {
	var secs int64
	if err := json.Unmarshal(b, &secs); err != nil {
		return err
	}
	*t = EpochSeconds(time.Unix(secs, 0).UTC())
	return nil
}

`
