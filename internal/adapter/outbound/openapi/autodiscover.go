package openapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Common OpenAPI schema paths used by various frameworks
var commonOpenAPIPaths = []string{
	"/openapi.json",            // FastAPI default
	"/openapi.yaml",            // YAML-first services
	"/docs/openapi.json",       // Alternative FastAPI path
	"/swagger.json",            // Swagger/OpenAPI 2.0
	"/v3/api-docs",             // SpringDoc OpenAPI 3.0
	"/api-docs",                // SpringFox
	"/api/openapi.json",        // Custom API prefix
	"/api/v1/openapi.json",     // Versioned API
	"/api/swagger.json",        // Alternative swagger path
	"/swagger/v1/swagger.json", // .NET default
	"/spec",                    // Alternative spec path
	"/api-spec.json",           // Custom spec name
}

// AutoDiscoverer attempts to find OpenAPI schemas from base URLs, so a
// generation target may name a service root instead of an exact schema URL.
type AutoDiscoverer struct {
	client *http.Client
	logger *slog.Logger
}

// NewAutoDiscoverer creates a new OpenAPI schema auto-discoverer.
func NewAutoDiscoverer(client *http.Client, logger *slog.Logger) *AutoDiscoverer {
	return &AutoDiscoverer{
		client: client,
		logger: logger.With("component", "openapi_autodiscoverer"),
	}
}

// ResolveSchemaSource takes a source string and returns a resolved schema
// URL. Local paths and direct schema URLs pass through unchanged; a bare
// http(s) base URL triggers probing of well-known schema paths.
func (d *AutoDiscoverer) ResolveSchemaSource(ctx context.Context, source string, headers map[string]string) (string, error) {
	log := d.logger.With(slog.String("source", source))

	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return source, nil
	}

	// Already a schema URL (ends with a document extension or mentions a
	// well-known spec path segment).
	lowerSource := strings.ToLower(source)
	if strings.HasSuffix(lowerSource, ".json") ||
		strings.HasSuffix(lowerSource, ".yaml") ||
		strings.HasSuffix(lowerSource, ".yml") ||
		strings.Contains(lowerSource, "openapi") ||
		strings.Contains(lowerSource, "swagger") ||
		strings.Contains(lowerSource, "api-docs") {
		log.Debug("Source appears to be a direct schema URL.")
		return source, nil
	}

	log.Info("Source appears to be a base URL, attempting auto-discovery.")
	discoveredURL, err := d.discoverSchema(ctx, source, headers)
	if err != nil {
		// Auto-discovery failing is not fatal here: the original source may
		// still fetch as-is, and the fetcher surfaces that failure.
		log.Warn("Auto-discovery failed, using original source.", slog.Any("error", err))
		return source, nil
	}
	return discoveredURL, nil
}

// discoverSchema probes well-known schema paths under a base URL.
func (d *AutoDiscoverer) discoverSchema(ctx context.Context, baseURL string, headers map[string]string) (string, error) {
	log := d.logger.With(slog.String("base_url", baseURL))
	log.Info("Attempting to auto-discover OpenAPI schema.")

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Scheme == "" {
		return "", fmt.Errorf("base URL must include scheme (http:// or https://)")
	}

	for _, path := range commonOpenAPIPaths {
		schemaURL := strings.TrimRight(baseURL, "/") + path
		log.Debug("Trying OpenAPI path.", slog.String("url", schemaURL))

		valid, err := d.checkOpenAPIEndpoint(ctx, schemaURL, headers)
		if err != nil {
			log.Debug("Failed to check endpoint.",
				slog.String("url", schemaURL),
				slog.Any("error", err))
			continue
		}
		if valid {
			log.Info("Found OpenAPI schema.", slog.String("url", schemaURL))
			return schemaURL, nil
		}
	}

	return "", fmt.Errorf("no OpenAPI schema found at base URL: %s", baseURL)
}

// checkOpenAPIEndpoint checks if a URL returns a plausible OpenAPI schema.
func (d *AutoDiscoverer) checkOpenAPIEndpoint(ctx context.Context, schemaURL string, headers map[string]string) (bool, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, schemaURL, nil)
	if err != nil {
		return false, err
	}

	req.Header.Set("Accept", "application/json, application/vnd.oai.openapi+json")
	req.Header.Set("User-Agent", "oastypes/1.0")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	// Checking the content type is enough for discovery purposes; the
	// fetcher parses and validates the body afterwards.
	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") &&
		!strings.Contains(contentType, "application/vnd.oai.openapi+json") &&
		!strings.Contains(contentType, "yaml") {
		return false, nil
	}
	return true, nil
}
