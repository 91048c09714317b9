package validation

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	apperrors "knowledge-workers/internal/common/errors"
)

// Schema names for upstream payloads checked at the fetcher boundary.
const (
	SchemaAddressSearch = "address_search"
	SchemaNominatim     = "nominatim"
	SchemaNewsFeed      = "news_feed"
	SchemaCampusFeed    = "campus_feed"
	SchemaGroundInput   = "ground_input"
)

var schemas = map[string]string{
	// French national address API (GeoJSON FeatureCollection).
	SchemaAddressSearch: `{
		"type": "object",
		"required": ["features"],
		"properties": {
			"features": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["geometry", "properties"],
					"properties": {
						"geometry": {
							"type": "object",
							"required": ["coordinates"],
							"properties": {
								"coordinates": {"type": "array", "minItems": 2, "items": {"type": "number"}}
							}
						},
						"properties": {
							"type": "object",
							"properties": {
								"label": {"type": "string"},
								"city": {"type": "string"},
								"type": {"type": "string"}
							}
						}
					}
				}
			}
		}
	}`,
	SchemaNominatim: `{
		"type": "array",
		"items": {
			"type": "object",
			"required": ["lat", "lon"],
			"properties": {
				"lat": {"type": ["string", "number"]},
				"lon": {"type": ["string", "number"]},
				"display_name": {"type": "string"}
			}
		}
	}`,
	SchemaNewsFeed: `{
		"definitions": {
			"item": {
				"type": "object",
				"required": ["title"],
				"properties": {
					"title": {"type": "string", "minLength": 1},
					"summary": {"type": ["string", "null"]},
					"link": {"type": ["string", "null"]}
				}
			},
			"items": {"type": "array", "items": {"$ref": "#/definitions/item"}}
		},
		"oneOf": [
			{"$ref": "#/definitions/items"},
			{"type": "object", "required": ["data"], "properties": {"data": {"$ref": "#/definitions/items"}}}
		]
	}`,
	SchemaCampusFeed: `{
		"definitions": {
			"item": {
				"type": "object",
				"required": ["ville"],
				"properties": {
					"ville": {"type": "string", "minLength": 1},
					"pays": {"type": ["string", "null"]},
					"url": {"type": ["string", "null"]},
					"formations": {"type": ["array", "null"], "items": {"type": "string"}}
				}
			},
			"items": {"type": "array", "items": {"$ref": "#/definitions/item"}}
		},
		"oneOf": [
			{"$ref": "#/definitions/items"},
			{"type": "object", "required": ["data"], "properties": {"data": {"$ref": "#/definitions/items"}}}
		]
	}`,
	SchemaGroundInput: `{
		"type": "object",
		"required": ["message"],
		"properties": {
			"message": {"type": "string", "minLength": 1},
			"requestId": {"type": "string"},
			"history": {
				"type": ["array", "null"],
				"items": {
					"type": "object",
					"required": ["sender", "text"],
					"properties": {
						"sender": {"type": "string", "enum": ["user", "assistant", "bot"]},
						"text": {"type": "string"},
						"isError": {"type": "boolean"}
					}
				}
			}
		}
	}`,
}

var (
	compileOnce sync.Once
	compiled    map[string]*gojsonschema.Schema
	compileErr  error
)

func compileAll() {
	compiled = make(map[string]*gojsonschema.Schema, len(schemas))
	for name, raw := range schemas {
		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
		if err != nil {
			compileErr = fmt.Errorf("schema %s: %w", name, err)
			return
		}
		compiled[name] = s
	}
}

// ValidationError describes one schema violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateJSON checks raw against the named schema. Violations come back as
// an UNPARSEABLE_CONTENT error listing every failing field.
func ValidateJSON(schemaName string, raw []byte) error {
	return validate(schemaName, gojsonschema.NewBytesLoader(raw))
}

// ValidateValue checks an already-decoded value (e.g. job variables).
func ValidateValue(schemaName string, value interface{}) error {
	return validate(schemaName, gojsonschema.NewGoLoader(value))
}

func validate(schemaName string, doc gojsonschema.JSONLoader) error {
	compileOnce.Do(compileAll)
	if compileErr != nil {
		return compileErr
	}
	schema, ok := compiled[schemaName]
	if !ok {
		return fmt.Errorf("unknown schema %q", schemaName)
	}

	result, err := schema.Validate(doc)
	if err != nil {
		return apperrors.NewUnparseableContentError(schemaName, err.Error())
	}
	if result.Valid() {
		return nil
	}

	violations := make([]ValidationError, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		violations = append(violations, ValidationError{Field: e.Field(), Message: e.Description()})
	}
	sort.Slice(violations, func(i, j int) bool { return violations[i].Field < violations[j].Field })

	parts := make([]string, len(violations))
	for i, v := range violations {
		parts[i] = fmt.Sprintf("%s: %s", v.Field, v.Message)
	}
	return apperrors.NewUnparseableContentError(schemaName, strings.Join(parts, "; ")).
		WithMetadata("violations", violations)
}
