package validation

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// JSONSchema defines the structure for input/output schemas. It is a subset
// of draft-07 that gojsonschema loads directly.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties *bool               `json:"additionalProperties,omitempty"`
	AnyOf                []JSONSchema        `json:"anyOf,omitempty"`
}

type Property struct {
	Type        string              `json:"type,omitempty"`
	Description string              `json:"description,omitempty"`
	Minimum     *float64            `json:"minimum,omitempty"`
	Maximum     *float64            `json:"maximum,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Pattern     string              `json:"pattern,omitempty"`
	MinLength   *int                `json:"minLength,omitempty"`
	MaxLength   *int                `json:"maxLength,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Helpers for optional numeric and length bounds in schema literals.
func Float(v float64) *float64 { return &v }
func Int(v int) *int           { return &v }
func Bool(v bool) *bool        { return &v }

var compiled sync.Map // schema JSON -> *gojsonschema.Schema

func compile(schema JSONSchema) (*gojsonschema.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	if s, ok := compiled.Load(string(raw)); ok {
		return s.(*gojsonschema.Schema), nil
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	compiled.Store(string(raw), s)
	return s, nil
}

// ValidateInput validates input against schema. Top-level null values count
// as absent, so optional fields may be sent as null.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	doc := make(map[string]interface{}, len(input))
	for k, v := range input {
		if v != nil {
			doc[k] = v
		}
	}

	s, err := compile(schema)
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{Field: "(schema)", Message: err.Error(), Code: "SCHEMA_INVALID"}}}
	}

	result, err := s.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "DOCUMENT_INVALID"}}}
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    desc.Type(),
		})
	}
	return out
}

// ValidateJSON decodes raw into a map and validates it.
func ValidateJSON(raw []byte, schema JSONSchema) (map[string]interface{}, *ValidationResult) {
	var input map[string]interface{}
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, &ValidationResult{Errors: []ValidationError{{Field: "(root)", Message: "body must be a JSON object", Code: "INVALID_JSON"}}}
	}
	if input == nil {
		input = map[string]interface{}{}
	}
	return input, ValidateInput(input, schema)
}

func GetSchemaFromJSON(schemaJSON string) (JSONSchema, error) {
	var schema JSONSchema
	err := json.Unmarshal([]byte(schemaJSON), &schema)
	return schema, err
}

func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, 0, len(vr.Errors))
	for _, err := range vr.Errors {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return messages
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}
