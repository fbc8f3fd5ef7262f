package openapi

import (
	"log/slog"
	"os"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oastypes/oastypes/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func loadSchema(t *testing.T, raw string) domain.APISchema {
	t.Helper()
	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	doc, err := loader.LoadFromData([]byte(raw))
	require.NoError(t, err)
	return domain.APISchema{
		Source:  "test",
		RawData: []byte(raw),
		Doc:     doc,
	}
}

func TestGenerate_EnumTwoLevelNaming(t *testing.T) {
	schema := loadSchema(t, `
openapi: 3.0.0
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    WebhookEvent:
      type: string
      enum:
        - api_key.created
        - api_key.updated
`)

	gen := NewDefinitionGenerator(testLogger(), false)
	result, err := gen.Generate(schema)
	require.NoError(t, err)

	require.Len(t, result.Definitions, 1)
	def := result.Definitions[0]
	assert.Equal(t, "WebhookEvent", def.Name)
	assert.Equal(t, domain.KindSum, def.Kind)
	require.Len(t, def.Variants, 2)
	assert.Equal(t, "api_key.created", def.Variants[0].Tag)
	assert.Equal(t, "ApiKey_Created", def.Variants[0].Ident)
	assert.Equal(t, "api_key.updated", def.Variants[1].Tag)
	assert.Equal(t, "ApiKey_Updated", def.Variants[1].Ident)
	assert.True(t, def.Variants[0].Bare())
}

func TestGenerate_AnyOfEnumWithNull(t *testing.T) {
	schema := loadSchema(t, `
openapi: 3.1.0
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    ServiceTier:
      anyOf:
        - type: string
          enum: [auto, default, flex, scale, priority]
        - type: "null"
`)

	gen := NewDefinitionGenerator(testLogger(), false)
	result, err := gen.Generate(schema)
	require.NoError(t, err)

	require.Len(t, result.Definitions, 1)
	def := result.Definitions[0]
	assert.Equal(t, domain.KindSum, def.Kind)
	require.Len(t, def.Variants, 5)
	for _, v := range def.Variants {
		assert.True(t, v.Bare())
	}
	assert.Equal(t, "auto", def.Variants[0].Tag)
	assert.Equal(t, "Auto", def.Variants[0].Ident)
	assert.Equal(t, "priority", def.Variants[4].Tag)

	// The null branch becomes registry membership, never a variant.
	assert.True(t, result.Nullable.Contains("ServiceTier"))
	assert.Equal(t, 1, result.Nullable.Len())
}

func TestGenerate_RegisteredNullabilityPropagates(t *testing.T) {
	// Request is declared before ServiceTier, so a single-pass marking
	// would miss the field. The registry is consulted only after the
	// whole document has been walked.
	schema := loadSchema(t, `
openapi: 3.1.0
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    Request:
      type: object
      required: [service_tier]
      properties:
        service_tier:
          $ref: '#/components/schemas/ServiceTier'
    ServiceTier:
      anyOf:
        - type: string
          enum: [auto, default]
        - type: "null"
`)

	gen := NewDefinitionGenerator(testLogger(), false)
	result, err := gen.Generate(schema)
	require.NoError(t, err)

	require.Len(t, result.Definitions, 2)
	request := result.Definitions[0]
	assert.Equal(t, "Request", request.Name)
	require.Len(t, request.Fields, 1)
	assert.Equal(t, "service_tier", request.Fields[0].Name)
	assert.Equal(t, "ServiceTier", request.Fields[0].Type.Named)
	assert.True(t, request.Fields[0].Nullable)
}

func TestGenerate_AnyOfReferenceBranches(t *testing.T) {
	schema := loadSchema(t, `
openapi: 3.0.0
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    TextFormat:
      type: object
      properties:
        text: {type: string}
    JsonFormat:
      type: object
      properties:
        json: {type: string}
    ResponseFormat:
      anyOf:
        - $ref: '#/components/schemas/TextFormat'
        - $ref: '#/components/schemas/JsonFormat'
`)

	gen := NewDefinitionGenerator(testLogger(), false)
	result, err := gen.Generate(schema)
	require.NoError(t, err)

	require.Len(t, result.Definitions, 3)
	def := result.Definitions[2]
	assert.Equal(t, "ResponseFormat", def.Name)
	assert.Equal(t, domain.KindSum, def.Kind)
	require.Len(t, def.Variants, 2)
	assert.False(t, def.Variants[0].Bare())
	assert.Equal(t, "TextFormat", def.Variants[0].Ident)
	assert.Equal(t, "TextFormat", def.Variants[0].Payload.Named)
	assert.Equal(t, "JsonFormat", def.Variants[1].Ident)
}

func TestGenerate_AllOfFlatten(t *testing.T) {
	schema := loadSchema(t, `
openapi: 3.0.0
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    BaseEvent:
      type: object
      properties:
        id: {type: string}
    Payload:
      type: object
      properties:
        data: {type: string}
    FullEvent:
      allOf:
        - $ref: '#/components/schemas/BaseEvent'
        - $ref: '#/components/schemas/Payload'
`)

	gen := NewDefinitionGenerator(testLogger(), false)
	result, err := gen.Generate(schema)
	require.NoError(t, err)

	require.Len(t, result.Definitions, 3)
	def := result.Definitions[2]
	assert.Equal(t, "FullEvent", def.Name)
	assert.Equal(t, domain.KindStruct, def.Kind)
	require.Len(t, def.Fields, 2)
	assert.Equal(t, "base_event", def.Fields[0].Name)
	assert.Equal(t, "BaseEvent", def.Fields[0].Type.Named)
	assert.True(t, def.Fields[0].Flatten)
	assert.Equal(t, "payload", def.Fields[1].Name)
	assert.True(t, def.Fields[1].Flatten)
}

func TestGenerate_ArrayInlineItemSynthesized(t *testing.T) {
	schema := loadSchema(t, `
openapi: 3.0.0
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    Batch:
      type: array
      items:
        type: object
        required: [x]
        properties:
          x: {type: integer}
`)

	gen := NewDefinitionGenerator(testLogger(), false)
	result, err := gen.Generate(schema)
	require.NoError(t, err)

	require.Len(t, result.Definitions, 2)
	// The auxiliary item type exists before the alias that references it.
	item := result.Definitions[0]
	assert.Equal(t, "BatchItem", item.Name)
	assert.Equal(t, domain.KindStruct, item.Kind)
	require.Len(t, item.Fields, 1)
	assert.Equal(t, "x", item.Fields[0].Name)
	assert.Equal(t, domain.PrimInt64, item.Fields[0].Type.Primitive)
	assert.False(t, item.Fields[0].Nullable)

	alias := result.Definitions[1]
	assert.Equal(t, "Batch", alias.Name)
	assert.Equal(t, domain.KindAlias, alias.Kind)
	require.NotNil(t, alias.Alias)
	require.NotNil(t, alias.Alias.Elem)
	assert.Equal(t, "BatchItem", alias.Alias.Elem.Named)
}

func TestGenerate_ArrayOfReferencedItems(t *testing.T) {
	schema := loadSchema(t, `
openapi: 3.0.0
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    Invoice:
      type: object
      properties:
        total: {type: number}
    InvoiceList:
      type: array
      items:
        $ref: '#/components/schemas/Invoice'
`)

	gen := NewDefinitionGenerator(testLogger(), false)
	result, err := gen.Generate(schema)
	require.NoError(t, err)

	require.Len(t, result.Definitions, 2)
	alias := result.Definitions[1]
	assert.Equal(t, "InvoiceList", alias.Name)
	assert.Equal(t, domain.KindAlias, alias.Kind)
	assert.Equal(t, "Invoice", alias.Alias.Elem.Named)
}

func TestGenerate_NumericHeuristics(t *testing.T) {
	schema := loadSchema(t, `
openapi: 3.0.0
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    Usage:
      type: object
      required: [created, size, delta, ratio, active, label]
      properties:
        created:
          type: integer
          description: The Unix timestamp (in seconds) of creation.
        size:
          type: integer
          minimum: 1
        delta:
          type: integer
        ratio:
          type: number
        active:
          type: boolean
        label:
          type: string
`)

	gen := NewDefinitionGenerator(testLogger(), false)
	result, err := gen.Generate(schema)
	require.NoError(t, err)

	require.Len(t, result.Definitions, 1)
	def := result.Definitions[0]
	require.Len(t, def.Fields, 6)

	byName := map[string]domain.FieldSpec{}
	for _, f := range def.Fields {
		byName[f.Name] = f
	}

	assert.Equal(t, domain.PrimTimestamp, byName["created"].Type.Primitive)
	assert.Equal(t, domain.CodecEpochSeconds, byName["created"].Codec)
	assert.Equal(t, domain.PrimUint64, byName["size"].Type.Primitive)
	assert.Equal(t, domain.PrimInt64, byName["delta"].Type.Primitive)
	assert.Equal(t, domain.PrimFloat64, byName["ratio"].Type.Primitive)
	assert.Equal(t, domain.PrimBool, byName["active"].Type.Primitive)
	assert.Equal(t, domain.PrimString, byName["label"].Type.Primitive)
	for name, f := range byName {
		assert.False(t, f.Nullable, "field %s is required and must not be nullable", name)
	}
}

func TestGenerate_OptionalFieldsNullable(t *testing.T) {
	schema := loadSchema(t, `
openapi: 3.0.0
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    Account:
      type: object
      required: [id]
      properties:
        id: {type: string}
        note: {type: string}
        legacy:
          type: string
          nullable: true
`)

	gen := NewDefinitionGenerator(testLogger(), false)
	result, err := gen.Generate(schema)
	require.NoError(t, err)

	def := result.Definitions[0]
	require.Len(t, def.Fields, 3)
	assert.Equal(t, "id", def.Fields[0].Name)
	assert.False(t, def.Fields[0].Nullable)
	assert.Equal(t, "note", def.Fields[1].Name)
	assert.True(t, def.Fields[1].Nullable)
	assert.Equal(t, "legacy", def.Fields[2].Name)
	assert.True(t, def.Fields[2].Nullable)
}

func TestGenerate_TopLevelAliases(t *testing.T) {
	schema := loadSchema(t, `
openapi: 3.0.0
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    Token:
      type: string
    Enabled:
      type: boolean
`)

	gen := NewDefinitionGenerator(testLogger(), false)
	result, err := gen.Generate(schema)
	require.NoError(t, err)

	require.Len(t, result.Definitions, 2)
	assert.Equal(t, domain.KindAlias, result.Definitions[0].Kind)
	assert.Equal(t, domain.PrimString, result.Definitions[0].Alias.Primitive)
	assert.Equal(t, domain.KindAlias, result.Definitions[1].Kind)
	assert.Equal(t, domain.PrimBool, result.Definitions[1].Alias.Primitive)
}

func TestGenerate_DeclarationOrderPreserved(t *testing.T) {
	schema := loadSchema(t, `
openapi: 3.0.0
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    Zebra: {type: string}
    Apple: {type: string}
    Mango: {type: string}
`)

	gen := NewDefinitionGenerator(testLogger(), false)
	result, err := gen.Generate(schema)
	require.NoError(t, err)

	require.Len(t, result.Definitions, 3)
	assert.Equal(t, "Zebra", result.Definitions[0].Name)
	assert.Equal(t, "Apple", result.Definitions[1].Name)
	assert.Equal(t, "Mango", result.Definitions[2].Name)
}

func TestGenerate_HyphenatedNames(t *testing.T) {
	schema := loadSchema(t, `
openapi: 3.0.0
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    realtime-session:
      type: object
      properties:
        model: {type: string}
`)

	gen := NewDefinitionGenerator(testLogger(), false)
	result, err := gen.Generate(schema)
	require.NoError(t, err)

	require.Len(t, result.Definitions, 1)
	assert.Equal(t, "realtime_session", result.Definitions[0].Name)
}

func TestGenerate_DuplicateDefinitionFails(t *testing.T) {
	// The synthesized BatchItem collides with the declared schema of the
	// same name; declared and synthesized names share one namespace.
	schema := loadSchema(t, `
openapi: 3.0.0
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    BatchItem:
      type: string
    Batch:
      type: array
      items:
        type: object
        properties:
          x: {type: integer}
`)

	gen := NewDefinitionGenerator(testLogger(), false)
	_, err := gen.Generate(schema)
	assert.ErrorIs(t, err, domain.ErrDuplicateDefinition)
}

func TestGenerate_BadReferenceFails(t *testing.T) {
	raw := `
components:
  schemas:
    Bad:
      type: object
      properties:
        legacy:
          $ref: '#/definitions/Legacy'
`
	// Built by hand: the loader would reject the pointer outright, and the
	// resolver's own rejection is what is under test here.
	doc := &openapi3.T{
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{
				"Bad": &openapi3.SchemaRef{Value: &openapi3.Schema{
					Type: &openapi3.Types{"object"},
					Properties: openapi3.Schemas{
						"legacy": &openapi3.SchemaRef{Ref: "#/definitions/Legacy"},
					},
				}},
			},
		},
	}
	schema := domain.APISchema{Source: "test", RawData: []byte(raw), Doc: doc}

	gen := NewDefinitionGenerator(testLogger(), false)
	result, err := gen.Generate(schema)
	assert.ErrorIs(t, err, domain.ErrInvalidReference)
	assert.Nil(t, result)
}

func TestGenerate_TopLevelRefAddsNothing(t *testing.T) {
	schema := loadSchema(t, `
openapi: 3.0.0
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    Original:
      type: string
    Mirror:
      $ref: '#/components/schemas/Original'
`)

	gen := NewDefinitionGenerator(testLogger(), false)
	result, err := gen.Generate(schema)
	require.NoError(t, err)

	require.Len(t, result.Definitions, 1)
	assert.Equal(t, "Original", result.Definitions[0].Name)
}

func TestGenerate_UnsupportedShapePolicy(t *testing.T) {
	raw := `
openapi: 3.0.0
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    Outer:
      type: object
      properties:
        keep: {type: string}
        nested:
          type: object
          properties:
            deep: {type: string}
`

	t.Run("default mode skips with warning", func(t *testing.T) {
		gen := NewDefinitionGenerator(testLogger(), false)
		result, err := gen.Generate(loadSchema(t, raw))
		require.NoError(t, err)

		require.Len(t, result.Definitions, 1)
		def := result.Definitions[0]
		require.Len(t, def.Fields, 1)
		assert.Equal(t, "keep", def.Fields[0].Name)
	})

	t.Run("strict mode fails", func(t *testing.T) {
		gen := NewDefinitionGenerator(testLogger(), true)
		_, err := gen.Generate(loadSchema(t, raw))
		assert.ErrorIs(t, err, domain.ErrUnsupportedSchema)
	})
}

func TestGenerate_MissingParsedDocument(t *testing.T) {
	gen := NewDefinitionGenerator(testLogger(), false)
	_, err := gen.Generate(domain.APISchema{Source: "test"})
	assert.Error(t, err)
}
