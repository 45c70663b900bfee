// Package blueprint reads Blueprint documents and turns their loosely
// structured parts (column descriptors, names) into typed values.
package blueprint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/module-builder/internal/types"
)

// Format is the serialization of a Blueprint document.
type Format string

// Supported document formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// keyAliases maps camelCase spellings found in hand-written documents to the
// canonical snake_case keys.
var keyAliases = map[string]string{
	"apiRoutes":        "api_routes",
	"externalApis":     "external_apis",
	"externalAPIs":     "external_apis",
	"newTables":        "new_tables",
	"targetAudience":   "target_audience",
	"valueProposition": "vpu",
	"envVar":           "env_var",
	"envVars":          "env_vars",
	"notNull":          "not_null",
	"primaryKey":       "primary_key",
}

// Document is a decoded Blueprint document: the generic tree used for
// structural checks and its canonical JSON encoding.
type Document struct {
	Path   string
	Format Format
	Raw    map[string]any
	JSON   []byte
}

// FormatFromPath picks the document format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ReadFile reads and decodes a Blueprint document from disk.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Message: "failed to read file", Cause: err}
	}
	doc, err := Decode(data, FormatFromPath(path))
	if err != nil {
		if de, ok := err.(*DecodeError); ok {
			de.Path = path
		}
		return nil, err
	}
	doc.Path = path
	return doc, nil
}

// Decode parses document bytes in the given format.
func Decode(data []byte, format Format) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &DecodeError{Message: "document is empty"}
	}

	var raw map[string]any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &DecodeError{Message: "invalid YAML", Cause: err}
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, &DecodeError{Message: "invalid JSON", Cause: err}
		}
	}
	if raw == nil {
		return nil, &DecodeError{Message: "document must be an object"}
	}

	normalized, ok := normalizeKeys(raw).(map[string]any)
	if !ok {
		return nil, &DecodeError{Message: "document must be an object"}
	}

	canonical, err := json.Marshal(normalized)
	if err != nil {
		return nil, &DecodeError{Message: "failed to encode canonical JSON", Cause: err}
	}

	return &Document{Format: format, Raw: normalized, JSON: canonical}, nil
}

// Blueprint decodes the canonical JSON into the typed model.
func (d *Document) Blueprint() (*types.Blueprint, error) {
	var bp types.Blueprint
	if err := json.Unmarshal(d.JSON, &bp); err != nil {
		return nil, &DecodeError{Path: d.Path, Message: "document does not match the Blueprint model", Cause: err}
	}
	return &bp, nil
}

// normalizeKeys rewrites aliased keys, stringifies scalar column defaults and
// converts YAML's map[any]any nodes so the tree is JSON-encodable.
func normalizeKeys(node any) any {
	switch v := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = normalizeKeys(val)
		}
		if def, ok := out["default"]; ok {
			switch def.(type) {
			case string, nil:
			default:
				out["default"] = fmt.Sprint(def)
			}
		}
		for alias, canonical := range keyAliases {
			if val, ok := out[alias]; ok {
				if _, exists := out[canonical]; !exists {
					out[canonical] = val
				}
				delete(out, alias)
			}
		}
		return out
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, val := range v {
			if ks, ok := k.(string); ok {
				m[ks] = val
			}
		}
		return normalizeKeys(m)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeKeys(item)
		}
		return out
	default:
		return v
	}
}
