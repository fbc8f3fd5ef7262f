package openapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocOrder_YAML(t *testing.T) {
	raw := []byte(`
openapi: 3.0.0
info:
  title: Test
  version: "1.0"
paths: {}
components:
  schemas:
    Zebra:
      type: object
      properties:
        stripes:
          type: integer
        name:
          type: string
    Apple:
      type: object
      properties:
        color:
          type: string
    Basket:
      type: array
      items:
        type: object
        properties:
          weight:
            type: number
          label:
            type: string
`)

	order, err := parseDocOrder(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"Zebra", "Apple", "Basket"}, order.schemas)
	assert.Equal(t, []string{"stripes", "name"}, order.propOrder("Zebra"))
	assert.Equal(t, []string{"color"}, order.propOrder("Apple"))
	assert.Equal(t, []string{"weight", "label"}, order.propOrder("Basket/items"))
	assert.Nil(t, order.propOrder("Missing"))
}

func TestParseDocOrder_JSON(t *testing.T) {
	// JSON is valid YAML, so the same sidecar reads both.
	raw := []byte(`{
  "openapi": "3.0.0",
  "components": {
    "schemas": {
      "B": {"type": "object", "properties": {"y": {"type": "string"}, "x": {"type": "string"}}},
      "A": {"type": "string"}
    }
  }
}`)

	order, err := parseDocOrder(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "A"}, order.schemas)
	assert.Equal(t, []string{"y", "x"}, order.propOrder("B"))
}

func TestParseDocOrder_NoComponents(t *testing.T) {
	order, err := parseDocOrder([]byte("openapi: 3.0.0\npaths: {}\n"))
	require.NoError(t, err)
	assert.Empty(t, order.schemas)
}

func TestParseDocOrder_InvalidDocument(t *testing.T) {
	_, err := parseDocOrder([]byte("{unclosed"))
	assert.Error(t, err)
}
