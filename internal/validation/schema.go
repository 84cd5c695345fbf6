package validation

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"

	"github.com/goliatone/go-bulk/internal/catalog"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

type fieldIssue struct {
	field   string
	message string
}

type schemaCache struct {
	mu       sync.Mutex
	compiled map[string]*jsonschema.Schema
}

func newSchemaCache() *schemaCache {
	return &schemaCache{compiled: make(map[string]*jsonschema.Schema)}
}

// check validates the supplied inputs against the field types and enums the
// action declares. Required-ness is handled by rule 4, so the compiled
// schema never lists required properties.
func (c *schemaCache) check(action catalog.ActionDescriptor, input map[string]any) []fieldIssue {
	if len(action.InputSchema) == 0 || len(input) == 0 {
		return nil
	}
	schema, err := c.schemaFor(action)
	if err != nil || schema == nil {
		return nil
	}
	payload, err := normalizePayload(input)
	if err != nil {
		return []fieldIssue{{field: "input", message: err.Error()}}
	}
	err = schema.Validate(payload)
	if err == nil {
		return nil
	}
	validationErr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil
	}

	byField := map[string]string{}
	collectIssues(validationErr, byField)

	issues := make([]fieldIssue, 0, len(byField))
	for _, field := range action.InputSchema {
		if message, ok := byField[field.Name]; ok {
			issues = append(issues, fieldIssue{field: field.Name, message: message})
		}
	}
	return issues
}

func (c *schemaCache) schemaFor(action catalog.ActionDescriptor) (*jsonschema.Schema, error) {
	document := buildSchema(action.InputSchema)
	encoded, err := json.Marshal(document)
	if err != nil {
		return nil, err
	}
	key := string(action.ID) + "|" + string(encoded)

	c.mu.Lock()
	defer c.mu.Unlock()
	if schema, ok := c.compiled[key]; ok {
		return schema, nil
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("input.json", bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	schema, err := compiler.Compile("input.json")
	if err != nil {
		return nil, err
	}
	c.compiled[key] = schema
	return schema, nil
}

func buildSchema(fields []catalog.InputField) map[string]any {
	properties := make(map[string]any, len(fields))
	for _, field := range fields {
		property := map[string]any{}
		if field.Type != "" {
			property["type"] = string(field.Type)
		}
		if len(field.Enum) > 0 {
			values := make([]any, len(field.Enum))
			for i, value := range field.Enum {
				values[i] = value
			}
			property["enum"] = values
		}
		properties[field.Name] = property
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
	}
}

// normalizePayload round-trips the input through JSON so host supplied Go
// values (ints, typed strings) validate the same way decoded requests do.
func normalizePayload(input map[string]any) (any, error) {
	encoded, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	decoder := json.NewDecoder(bytes.NewReader(encoded))
	decoder.UseNumber()
	var out any
	if err := decoder.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func collectIssues(node *jsonschema.ValidationError, out map[string]string) {
	if node == nil {
		return
	}
	if len(node.Causes) == 0 {
		field := strings.Trim(strings.TrimSpace(node.InstanceLocation), "/")
		if idx := strings.Index(field, "/"); idx >= 0 {
			field = field[:idx]
		}
		if field == "" {
			return
		}
		if _, exists := out[field]; !exists {
			out[field] = strings.TrimSpace(node.Message)
		}
		return
	}
	for _, cause := range node.Causes {
		collectIssues(cause, out)
	}
}
