package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/verte-zerg/neurosense/internal/analysis"
)

const envelopeSchemaURL = "neurosense://analyze-request.json"

// envelopeSchema describes the body of POST /api/analyze. Element fields are
// type-checked later by the decoder so that mistyped events are dropped
// rather than rejected.
const envelopeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["typingData"],
  "properties": {
    "typingData": {
      "type": "array",
      "items": {
        "type": "object",
        "anyOf": [
          {"required": ["key"]},
          {"required": ["timestamp"]}
        ]
      }
    }
  }
}`

func compileEnvelopeSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(envelopeSchemaURL, strings.NewReader(envelopeSchema)); err != nil {
		return nil, fmt.Errorf("failed to add request schema: %w", err)
	}
	schema, err := compiler.Compile(envelopeSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile request schema: %w", err)
	}
	return schema, nil
}

// validateEnvelope checks doc against the request schema and reports a
// violation as *analysis.InvalidInputError.
func validateEnvelope(schema *jsonschema.Schema, doc any) error {
	err := schema.Validate(doc)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return &analysis.InvalidInputError{Reason: err.Error(), Index: -1}
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	loc := leaf.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return &analysis.InvalidInputError{
		Reason: fmt.Sprintf("%s: %s", loc, leaf.Message),
		Index:  elementIndex(loc),
	}
}

// elementIndex extracts N from an instance location of the form
// /typingData/N, or returns -1.
func elementIndex(loc string) int {
	rest, ok := strings.CutPrefix(loc, "/typingData/")
	if !ok {
		return -1
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return -1
	}
	return n
}
