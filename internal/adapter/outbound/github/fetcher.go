package github

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/oastypes/oastypes/internal/domain"
	"github.com/oastypes/oastypes/internal/usecase"
)

// Fetcher fetches OpenAPI documents from GitHub repositories.
type Fetcher struct {
	ghClient *GHClient
	logger   *slog.Logger
}

// NewFetcher creates a new GitHub schema fetcher.
func NewFetcher(logger *slog.Logger) *Fetcher {
	return &Fetcher{
		ghClient: NewGHClient(),
		logger:   logger.With("component", "github_fetcher"),
	}
}

// Fetch retrieves and parses a document from a GitHub repository.
func (f *Fetcher) Fetch(ctx context.Context, source string) (domain.APISchema, error) {
	log := f.logger.With(slog.String("source", source))

	if !IsGitHubURL(source) {
		return domain.APISchema{}, fmt.Errorf("not a GitHub URL: %s", source)
	}

	log.Info("Fetching OpenAPI document from GitHub.")

	content, err := f.ghClient.FetchFile(ctx, source)
	if err != nil {
		log.Error("Failed to fetch file from GitHub.", slog.Any("error", err))
		return domain.APISchema{}, fmt.Errorf("failed to fetch file from GitHub: %w", err)
	}

	loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: false}
	doc, parseErr := loader.LoadFromData(content)
	if parseErr != nil {
		log.Error("Failed to parse OpenAPI document.", slog.Any("error", parseErr))
		return domain.APISchema{}, fmt.Errorf("failed to parse OpenAPI document from %s: %w", source, parseErr)
	}

	if validateErr := doc.Validate(ctx); validateErr != nil {
		log.Warn("OpenAPI document validation failed.", slog.Any("validation_error", validateErr))
	}

	log.Info("Fetched and parsed OpenAPI document from GitHub.")
	return domain.APISchema{
		Source:  source,
		RawData: content,
		Doc:     doc,
	}, nil
}

// FetchWithConfig retrieves a document with source-level configuration.
// Headers are ignored here; gh carries its own authentication.
func (f *Fetcher) FetchWithConfig(ctx context.Context, config usecase.SchemaSourceConfig) (domain.APISchema, error) {
	return f.Fetch(ctx, config.URL)
}
