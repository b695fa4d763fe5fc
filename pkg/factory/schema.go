package factory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// createSchema constrains raw creation requests before they reach typed
// decoding. Offsets are nanoseconds, matching time.Duration's JSON form.
const createSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "creator", "max_supply", "public"],
  "properties": {
    "name":       {"type": "string", "minLength": 1, "maxLength": 128},
    "symbol":     {"type": "string", "maxLength": 16},
    "creator":    {"type": "string", "minLength": 1},
    "max_supply": {"type": "integer", "minimum": 1},
    "public":     {"$ref": "#/$defs/window"},
    "presales": {
      "type": "array",
      "maxItems": 5,
      "items": {
        "type": "object",
        "required": ["config", "addresses"],
        "properties": {
          "config":    {"$ref": "#/$defs/window"},
          "addresses": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}}
        }
      }
    },
    "royalty": {
      "type": "object",
      "properties": {
        "receiver": {"type": "string"},
        "bps":      {"type": "integer", "minimum": 0, "maximum": 10000}
      }
    }
  },
  "$defs": {
    "window": {
      "type": "object",
      "required": ["end_offset", "max_per_address"],
      "properties": {
        "name":            {"type": "string"},
        "start_offset":    {"type": "integer", "minimum": 0},
        "end_offset":      {"type": "integer", "minimum": 1},
        "price_per_unit":  {"type": "integer", "minimum": 0},
        "max_per_address": {"type": "integer", "minimum": 1},
        "allow_list_root": {"type": "string"}
      }
    }
  }
}`

var compiledCreateSchema = mustCompile("https://dropforge.schemas.local/create.schema.json", createSchema)

func mustCompile(url, schema string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(url, strings.NewReader(schema)); err != nil {
		panic(fmt.Sprintf("schema load failed: %v", err))
	}
	compiled, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("schema compile failed: %v", err))
	}
	return compiled
}

// DecodeCreateParams validates raw JSON against the creation schema and
// decodes it. Schema rejections come back before any typed parsing so the
// caller can surface them as validation errors.
func DecodeCreateParams(raw []byte) (CreateParams, error) {
	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return CreateParams{}, fmt.Errorf("parse creation request: %w", err)
	}
	if err := compiledCreateSchema.Validate(generic); err != nil {
		return CreateParams{}, fmt.Errorf("creation request rejected: %w", err)
	}

	var params CreateParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return CreateParams{}, fmt.Errorf("decode creation request: %w", err)
	}
	return params, nil
}
