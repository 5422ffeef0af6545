package library

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// documentSchema is the JSON Schema every stored document must satisfy.
// Validation runs on both write and read so that a hand-edited or
// truncated file is rejected before it can corrupt downstream reports.
const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["id", "title", "parts", "completeness", "reconstructed_at"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "title": {"type": "string"},
    "jurisdiction": {"type": "string"},
    "source_url": {"type": "string"},
    "run_id": {"type": "string"},
    "parts": {
      "type": "array",
      "items": {"$ref": "#/$defs/node"}
    },
    "diagnostics": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["kind", "message"],
        "properties": {
          "kind": {"type": "string"},
          "section": {"type": "string"},
          "container": {"type": "string"},
          "message": {"type": "string"}
        }
      }
    },
    "completeness": {
      "type": "object",
      "required": ["input_count", "tree_count"],
      "properties": {
        "input_count": {"type": "integer", "minimum": 0},
        "tree_count": {"type": "integer", "minimum": 0},
        "missing": {"type": "array", "items": {"type": "string"}},
        "duplicates": {"type": "array", "items": {"type": "string"}}
      }
    },
    "fetched_at": {"type": "string"},
    "reconstructed_at": {"type": "string"}
  },
  "$defs": {
    "node": {
      "type": "object",
      "required": ["label"],
      "properties": {
        "label": {"type": "string", "minLength": 1},
        "children": {
          "type": "array",
          "items": {"$ref": "#/$defs/node"}
        },
        "sections": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["number"],
            "properties": {
              "number": {"type": "string", "minLength": 1},
              "heading": {"type": "string"},
              "body": {"type": "string"}
            }
          }
        }
      }
    }
  }
}`

var compiledDocumentSchema = jsonschema.MustCompileString("document.schema.json", documentSchema)

// SerializeDocument converts a document to validated, indented JSON.
func SerializeDocument(document *Document) ([]byte, error) {
	if document == nil {
		return nil, fmt.Errorf("document is nil")
	}

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	if err := validateDocumentJSON(data); err != nil {
		return nil, err
	}

	return data, nil
}

// DeserializeDocument parses and validates a stored document.
func DeserializeDocument(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty data")
	}

	if err := validateDocumentJSON(data); err != nil {
		return nil, err
	}

	var document Document
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}

	return &document, nil
}

// validateDocumentJSON checks raw JSON against the document schema.
func validateDocumentJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var instance any
	if err := decoder.Decode(&instance); err != nil {
		return fmt.Errorf("failed to parse document JSON: %w", err)
	}

	if err := compiledDocumentSchema.Validate(instance); err != nil {
		return fmt.Errorf("document failed schema validation: %w", err)
	}

	return nil
}
