package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/patchwork/internal/doc"
	"github.com/roach88/patchwork/internal/patch"
)

// Error codes used by file loading.
const (
	ErrCodeNotFound  = "E404"
	ErrCodeBadInput  = "E400"
	ErrCodeConflict  = "E409"
	ErrCodeRejected  = "E422"
	ErrCodeGeneric   = "E500"
)

// LoadValue reads a document content file. JSON is the native format; .yaml
// and .yml files are decoded through yaml.v3 and converted into the value
// tree.
func LoadValue(path string) (doc.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("read %s", path), err)
	}

	if isYAML(path) {
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("parse YAML %s", path), err)
		}
		v, err := doc.FromGo(normalizeYAML(raw))
		if err != nil {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("convert YAML %s", path), err)
		}
		return v, nil
	}

	v, err := doc.FromJSON(data)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("parse JSON %s", path), err)
	}
	return v, nil
}

// LoadPatch reads an operation list file (JSON array of op objects, or the
// YAML equivalent).
func LoadPatch(path string) ([]patch.Operation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("read %s", path), err)
	}

	if isYAML(path) {
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("parse YAML %s", path), err)
		}
		// Round-trip through JSON so the patch codec stays the single
		// source of wire-shape truth
		data, err = json.Marshal(normalizeYAML(raw))
		if err != nil {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("convert YAML %s", path), err)
		}
	}

	ops, err := patch.ParsePatch(data)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("parse patch %s", path), err)
	}
	return ops, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// normalizeYAML converts yaml.v3 decoding artifacts (map[any]any keys from
// older documents, non-string keys) into JSON-compatible shapes.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = normalizeYAML(elem)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[fmt.Sprint(k)] = normalizeYAML(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalizeYAML(elem)
		}
		return out
	default:
		return v
	}
}
