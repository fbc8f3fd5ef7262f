package usecase

import (
	"context"

	"github.com/oastypes/oastypes/internal/domain"
)

// SchemaSourceConfig represents a schema source with optional headers for
// remote fetches.
type SchemaSourceConfig struct {
	URL     string
	Headers map[string]string
}

// GenerationTarget is one unit of work: a source document plus where and
// how its definitions are emitted. Targets are mutually independent; each
// run owns its own accumulators.
type GenerationTarget struct {
	Source SchemaSourceConfig
	// Package is the package clause of the emitted file.
	Package string
	// OutFile is the output path, relative to the project root.
	OutFile string
}

// SchemaFetcher defines the interface for loading an interface-description
// document from a source location.
type SchemaFetcher interface {
	Fetch(ctx context.Context, source string) (domain.APISchema, error)
	FetchWithConfig(ctx context.Context, config SchemaSourceConfig) (domain.APISchema, error)
}

// DefinitionGenerator turns a fetched document into typed definitions plus
// the registry of inferred-nullable schema names.
type DefinitionGenerator interface {
	Generate(schema domain.APISchema) (*domain.GenerationResult, error)
}

// Renderer assembles a generation result into one source file.
type Renderer interface {
	Render(result *domain.GenerationResult, pkg string) ([]byte, error)
}

// OutputWriter persists rendered source.
type OutputWriter interface {
	Write(path string, data []byte) error
}
