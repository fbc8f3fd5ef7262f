package openapi

import (
	"fmt"
	"strings"

	"github.com/oastypes/oastypes/internal/domain"
)

const localSchemaPrefix = "#/components/schemas"

// ResolveLocalRef returns the local schema name a reference denotes.
// Only the exact "#/components/schemas/<Name>" form is accepted; external
// documents are never followed and any other shape is fatal.
func ResolveLocalRef(ref string) (string, error) {
	idx := strings.LastIndex(ref, "/")
	if idx < 0 {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidReference, ref)
	}
	if ref[:idx] != localSchemaPrefix {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidReference, ref)
	}
	name := ref[idx+1:]
	if name == "" {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidReference, ref)
	}
	return name, nil
}
