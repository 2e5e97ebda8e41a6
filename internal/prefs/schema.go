package prefs

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed prefs.schema.json
var prefsSchemaJSON string

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// DecodeBlob validates the translators-prefs blob and splits it into one raw
// entry per provider name. Blank input decodes to an empty map.
func DecodeBlob(raw string) (map[string]json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return map[string]json.RawMessage{}, nil
	}

	value, err := decodeStrictJSON([]byte(trimmed))
	if err != nil {
		return nil, fmt.Errorf("decode prefs JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load prefs schema: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("prefs schema validation failed: %w", err)
	}

	entries := make(map[string]json.RawMessage)
	if err := json.Unmarshal([]byte(trimmed), &entries); err != nil {
		return nil, fmt.Errorf("unmarshal prefs: %w", err)
	}
	return entries, nil
}

// EncodeBlob serializes the whole blob with stable key order.
func EncodeBlob(entries map[string]json.RawMessage) (string, error) {
	if entries == nil {
		entries = map[string]json.RawMessage{}
	}
	encoded, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("encode prefs: %w", err)
	}
	return string(encoded), nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource("prefs.schema.json", strings.NewReader(prefsSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, compiledSchemaErr = compiler.Compile("prefs.schema.json")
	})
	return compiledSchema, compiledSchemaErr
}

func decodeStrictJSON(data []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("unexpected trailing JSON content")
	}
	return value, nil
}
