// Package main regenerates the JSON schema embedded in internal/config.
// Run it from the repository root after changing the Config struct or any
// of the constraint overlays below.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"reflect"

	"github.com/Sumatoshi-tech/impsort/internal/config"
)

// Schema is the subset of JSON Schema the configuration file needs.
type Schema struct {
	Schema               string             `json:"$schema,omitempty"`
	Title                string             `json:"title,omitempty"`
	Type                 string             `json:"type,omitempty"`
	AdditionalProperties *bool              `json:"additionalProperties,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Enum                 []string           `json:"enum,omitempty"`
	Minimum              *int               `json:"minimum,omitempty"`
}

// constraints overlays value restrictions onto fields the struct types
// alone cannot express, keyed by the dotted config path.
var constraints = map[string]*Schema{
	"encoding": {
		Enum: []string{"utf-8", "utf8", "us-ascii", "ascii", "iso-8859-1", "latin-1"},
	},
	"line_ending": {
		Enum: []string{"auto", "keep", "lf", "crlf", "cr"},
	},
	"run.workers": {
		Minimum: intPtr(0),
	},
	"telemetry.log_level": {
		Enum: []string{"debug", "info", "warn", "warning", "error"},
	},
	"telemetry.log_format": {
		Enum: []string{"text", "json"},
	},
}

func main() {
	out := flag.String("o", "internal/config/schema.json", "output path for the generated schema")
	flag.Parse()

	schema := configSchema()

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal schema: %v\n", err)
		os.Exit(1)
	}

	data = append(data, '\n')

	if err := os.WriteFile(*out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *out, err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %s\n", *out)
}

func configSchema() *Schema {
	root := structSchema(reflect.TypeOf(config.Config{}), "")
	root.Schema = "http://json-schema.org/draft-07/schema#"
	root.Title = "impsort configuration"

	return root
}

// structSchema maps a struct to an object schema keyed by mapstructure
// tags. Unknown keys are rejected so typos surface at validation time.
func structSchema(t reflect.Type, path string) *Schema {
	props := make(map[string]*Schema)

	for i := range t.NumField() {
		field := t.Field(i)

		name := field.Tag.Get("mapstructure")
		if name == "" || name == "-" {
			continue
		}

		childPath := name
		if path != "" {
			childPath = path + "." + name
		}

		props[name] = fieldSchema(field.Type, childPath)
	}

	return &Schema{
		Type:                 "object",
		AdditionalProperties: boolPtr(false),
		Properties:           props,
	}
}

func fieldSchema(t reflect.Type, path string) *Schema {
	var schema *Schema

	switch t.Kind() {
	case reflect.String:
		schema = &Schema{Type: "string"}
	case reflect.Bool:
		schema = &Schema{Type: "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		schema = &Schema{Type: "integer"}
	case reflect.Struct:
		schema = structSchema(t, path)
	default:
		fmt.Fprintf(os.Stderr, "unsupported field kind %s at %s\n", t.Kind(), path)
		os.Exit(1)
	}

	if overlay, ok := constraints[path]; ok {
		schema.Enum = overlay.Enum
		schema.Minimum = overlay.Minimum
	}

	return schema
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }
