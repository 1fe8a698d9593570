package feed

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/feed.schema.json
var feedSchemaJSON []byte

// JSONOptions controls JSON parsing.
type JSONOptions struct {
	MaxRows int // 0 = unlimited
}

// ParseJSON parses a JSON feed: a top-level array of items or an object with
// an "items" array. The document structure is checked against the embedded
// JSON Schema before rows are extracted, so shape problems come back as one
// malformed-upload error rather than a pile of per-row noise.
func ParseJSON(data []byte, opts JSONOptions) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: JSON is empty", ErrMalformedFeed)
	}

	documentLoader := gojsonschema.NewBytesLoader(data)
	schemaLoader := gojsonschema.NewBytesLoader(feedSchemaJSON)
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("%w: JSON must be an array of items or an object with an 'items' array (%s)",
			ErrMalformedFeed, schemaErrors(result))
	}

	items, err := extractItems(data)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: JSON feed contains no items", ErrMalformedFeed)
	}
	if opts.MaxRows > 0 && len(items) > opts.MaxRows {
		return nil, fmt.Errorf("%w: feed exceeds %d rows", ErrMalformedFeed, opts.MaxRows)
	}

	records := make([]Record, 0, len(items))
	for i, item := range items {
		values := make(map[string]string, len(item))
		for key, raw := range item {
			values[strings.TrimSpace(key)] = stringify(raw)
		}
		records = append(records, Record{Row: firstDataRow + i, Values: values})
	}
	return records, nil
}

func schemaErrors(result *gojsonschema.Result) string {
	parts := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		parts = append(parts, desc.String())
	}
	return strings.Join(parts, "; ")
}

// extractItems unmarshals the already schema-validated document.
func extractItems(data []byte) ([]map[string]json.RawMessage, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []map[string]json.RawMessage
		if err := decoder.Decode(&items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
		}
		return items, nil
	}

	var wrapper struct {
		Items []map[string]json.RawMessage `json:"items"`
	}
	if err := decoder.Decode(&wrapper); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}
	return wrapper.Items, nil
}

// stringify renders a JSON scalar as the string the rule checkers see.
// Numbers keep their literal form (no float round-tripping); null becomes "".
func stringify(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return strings.TrimSpace(s)
		}
	}
	if string(trimmed) == "true" || string(trimmed) == "false" {
		return string(trimmed)
	}
	if _, err := strconv.ParseFloat(string(trimmed), 64); err == nil {
		return string(trimmed)
	}
	// Nested arrays/objects: keep the raw JSON so the issue sample shows it.
	return string(trimmed)
}
