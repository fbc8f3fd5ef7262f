package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oastypes/oastypes/internal/domain"
)

// GenerateTypesUseCase orchestrates one generation target: fetch the
// document, expand it into definitions, render Go source, write it out.
// Every failure is fatal to the target; there is no partial output.
type GenerateTypesUseCase struct {
	fetchers  map[domain.SourceKind]SchemaFetcher
	generator DefinitionGenerator
	renderer  Renderer
	writer    OutputWriter
	logger    *slog.Logger
}

// NewGenerateTypesUseCase creates a new GenerateTypesUseCase. It requires a
// map of fetchers keyed by source kind plus the generator, renderer, and
// writer ports.
func NewGenerateTypesUseCase(
	fetchers map[domain.SourceKind]SchemaFetcher,
	generator DefinitionGenerator,
	renderer Renderer,
	writer OutputWriter,
	logger *slog.Logger,
) *GenerateTypesUseCase {
	return &GenerateTypesUseCase{
		fetchers:  fetchers,
		generator: generator,
		renderer:  renderer,
		writer:    writer,
		logger:    logger.With("usecase", "GenerateTypes"),
	}
}

// Execute runs one target end to end.
func (uc *GenerateTypesUseCase) Execute(ctx context.Context, target GenerationTarget) error {
	log := uc.logger.With(
		slog.String("source", target.Source.URL),
		slog.String("out", target.OutFile))
	log.Info("Starting type generation.")

	if target.Source.URL == "" {
		return fmt.Errorf("generation target has no source document")
	}
	if target.OutFile == "" {
		return fmt.Errorf("generation target has no output file")
	}
	if target.Package == "" {
		return fmt.Errorf("generation target has no package name")
	}

	// 1. Select fetcher by source kind and fetch.
	kind := sourceKind(target.Source.URL)
	fetcher, ok := uc.fetchers[kind]
	if !ok {
		log.Error("No schema fetcher available for source.", slog.String("kind", string(kind)))
		return fmt.Errorf("no schema fetcher available for source: %s", target.Source.URL)
	}

	schema, err := fetcher.FetchWithConfig(ctx, target.Source)
	if err != nil {
		log.Error("Failed to fetch schema.", slog.Any("error", err))
		return fmt.Errorf("failed to fetch schema from %s: %w", target.Source.URL, err)
	}
	log.Info("Schema fetched successfully.")

	// 2. Expand the named schemas into definitions.
	result, err := uc.generator.Generate(schema)
	if err != nil {
		log.Error("Failed to generate definitions.", slog.Any("error", err))
		return fmt.Errorf("failed to generate definitions for %s: %w", target.Source.URL, err)
	}

	// 3. Render the accumulated definitions into one source file.
	src, err := uc.renderer.Render(result, target.Package)
	if err != nil {
		log.Error("Failed to render definitions.", slog.Any("error", err))
		return fmt.Errorf("failed to render definitions for %s: %w", target.Source.URL, err)
	}

	// 4. Write the output.
	if err := uc.writer.Write(target.OutFile, src); err != nil {
		log.Error("Failed to write generated source.", slog.Any("error", err))
		return fmt.Errorf("failed to write %s: %w", target.OutFile, err)
	}

	log.Info("Successfully generated types.",
		slog.Int("definition_count", len(result.Definitions)))
	return nil
}

// sourceKind classifies a source string for fetcher selection.
func sourceKind(source string) domain.SourceKind {
	if strings.HasPrefix(source, "github://") {
		return domain.SourceKindGitHub
	}
	return domain.SourceKindOpenAPI
}
