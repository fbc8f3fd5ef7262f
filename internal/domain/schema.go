package domain

import "github.com/getkin/kin-openapi/openapi3"

// SourceKind tells the use case which fetcher understands a source string.
type SourceKind string

const (
	// SourceKindOpenAPI covers local paths and http(s) URLs.
	SourceKindOpenAPI SourceKind = "openapi"
	// SourceKindGitHub covers github://owner/repo/path[@ref] sources.
	SourceKindGitHub SourceKind = "github"
)

// APISchema is a fetched interface-description document before generation.
type APISchema struct {
	// Source is the origin as given by the caller (path, URL, github://...).
	Source string
	// RawData holds the unprocessed document bytes. The generator re-reads
	// them to recover declaration order, which the parsed model loses.
	RawData []byte
	// Doc is the document parsed by kin-openapi.
	Doc *openapi3.T
}
