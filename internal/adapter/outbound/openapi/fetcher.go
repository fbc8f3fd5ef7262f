package openapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/oastypes/oastypes/internal/domain"
	"github.com/oastypes/oastypes/internal/usecase"
)

// SchemaFetcher implements the usecase.SchemaFetcher interface for OpenAPI
// documents. It performs exactly one blocking read per invocation: a local
// file resolved against the project root, or an http(s) URL.
type SchemaFetcher struct {
	httpClient     *http.Client
	logger         *slog.Logger
	projectRoot    string
	autoDiscoverer *AutoDiscoverer
}

// NewSchemaFetcher creates a new OpenAPI SchemaFetcher. Local sources are
// resolved relative to projectRoot.
func NewSchemaFetcher(client *http.Client, projectRoot string, logger *slog.Logger) *SchemaFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if projectRoot == "" {
		projectRoot = "."
	}
	return &SchemaFetcher{
		httpClient:     client,
		logger:         logger.With("component", "openapi_fetcher"),
		projectRoot:    projectRoot,
		autoDiscoverer: NewAutoDiscoverer(client, logger),
	}
}

// Fetch loads an OpenAPI document from a URL or a project-relative path.
func (f *SchemaFetcher) Fetch(ctx context.Context, src string) (domain.APISchema, error) {
	return f.FetchWithConfig(ctx, usecase.SchemaSourceConfig{URL: src})
}

// FetchWithConfig loads an OpenAPI document, sending custom headers for
// remote sources. Headers are ignored for local files.
func (f *SchemaFetcher) FetchWithConfig(ctx context.Context, config usecase.SchemaSourceConfig) (domain.APISchema, error) {
	log := f.logger.With(slog.String("source", config.URL))
	log.Info("Fetching OpenAPI schema.")

	resolvedSrc, err := f.autoDiscoverer.ResolveSchemaSource(ctx, config.URL, config.Headers)
	if err != nil {
		log.Warn("Failed to resolve schema source.", slog.Any("error", err))
		resolvedSrc = config.URL
	} else if resolvedSrc != config.URL {
		log.Info("Auto-discovered OpenAPI schema.", slog.String("resolved_url", resolvedSrc))
	}

	var rawData []byte
	u, parseErr := url.ParseRequestURI(resolvedSrc)

	if parseErr == nil && (u.Scheme == "http" || u.Scheme == "https") {
		log.Debug("Fetching from URL.")
		rawData, err = f.fetchURL(ctx, resolvedSrc, config.Headers)
		if err != nil {
			return domain.APISchema{}, err
		}
	} else {
		path := resolvedSrc
		if !filepath.IsAbs(path) {
			path = filepath.Join(f.projectRoot, path)
		}
		log.Debug("Reading local file.", slog.String("path", path))
		rawData, err = os.ReadFile(path)
		if err != nil {
			return domain.APISchema{}, fmt.Errorf("failed to read schema from file %s: %w", path, err)
		}
	}

	loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: false}
	doc, err := loader.LoadFromData(rawData)
	if err != nil {
		log.Error("Failed to parse OpenAPI schema data.", slog.Any("error", err))
		return domain.APISchema{}, fmt.Errorf("failed to parse OpenAPI schema from %s: %w", config.URL, err)
	}

	if validateErr := doc.Validate(ctx); validateErr != nil {
		log.Warn("OpenAPI schema validation failed.", slog.Any("validation_error", validateErr))
	}

	log.Info("Successfully fetched and parsed OpenAPI schema.")
	return domain.APISchema{
		Source:  config.URL,
		RawData: rawData,
		Doc:     doc,
	}, nil
}

func (f *SchemaFetcher) fetchURL(ctx context.Context, src string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", src, err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schema from URL %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch schema from URL %s: status %s", src, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", src, err)
	}
	return body, nil
}
