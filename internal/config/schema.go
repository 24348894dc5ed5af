package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// configSchema is the JSON Schema for credsync.yaml. Kept embedded so a
// broken install cannot lose it.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "remote": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "base_url": {"type": "string"},
        "timeout_ms": {"type": "integer", "minimum": 1},
        "ca_cert": {"type": "string"}
      }
    },
    "sync": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "max_attempts": {"type": "integer", "minimum": 1},
        "backoff_base_ms": {"type": "integer", "minimum": 1},
        "global_timeout_ms": {"type": "integer", "minimum": 1},
        "skip_oauth_configured": {"type": "boolean"},
        "env_file": {"type": "string"},
        "use_keychain": {"type": "boolean"}
      }
    },
    "breaker": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "failure_threshold": {"type": "integer", "minimum": 1},
        "window_ms": {"type": "integer", "minimum": 1},
        "reset_timeout_ms": {"type": "integer", "minimum": 1},
        "half_open_successes": {"type": "integer", "minimum": 1}
      }
    },
    "providers": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["name", "source_env_var"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "source_env_var": {"type": "string", "minLength": 1},
          "expected_prefix": {"type": "string"},
          "min_length": {"type": "integer", "minimum": 1},
          "max_length": {"type": "integer", "minimum": 1}
        }
      }
    },
    "metrics": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "enabled": {"type": "boolean"},
        "port": {"type": "integer", "minimum": 1, "maximum": 65535},
        "path": {"type": "string"}
      }
    }
  }
}`

// validateSchema checks raw YAML config bytes against the embedded
// schema. YAML is decoded generically and re-marshalled to JSON so
// gojsonschema can consume it.
func validateSchema(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	jsonData, err := json.Marshal(normalizeKeys(doc))
	if err != nil {
		return fmt.Errorf("failed to marshal data for validation: %w", err)
	}

	schemaLoader := gojsonschema.NewStringLoader(configSchema)
	documentLoader := gojsonschema.NewBytesLoader(jsonData)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		return fmt.Errorf("schema validation failed:\n  - %s", strings.Join(errorMessages, "\n  - "))
	}

	return nil
}

// normalizeKeys converts yaml.v3's map[string]interface{} values into
// JSON-marshallable form recursively. yaml.v3 already yields string
// keys; this guards nested sequences and maps.
func normalizeKeys(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalizeKeys(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalizeKeys(val)
		}
		return out
	default:
		return v
	}
}
