package ai

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	schemasOnce sync.Once
	schemas     map[Kind]*jsonschema.Schema
	schemasErr  error
)

func compileSchemas() {
	schemas = make(map[Kind]*jsonschema.Schema, 3)
	compiler := jsonschema.NewCompiler()
	for _, kind := range []Kind{KindResume, KindJob, KindDepth} {
		name := string(kind) + ".json"
		data, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			schemasErr = fmt.Errorf("read %s schema: %w", kind, err)
			return
		}
		if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
			schemasErr = fmt.Errorf("add %s schema: %w", kind, err)
			return
		}
		schema, err := compiler.Compile(name)
		if err != nil {
			schemasErr = fmt.Errorf("compile %s schema: %w", kind, err)
			return
		}
		schemas[kind] = schema
	}
}

// ValidateSchema checks that raw is a JSON document with the shape expected for kind.
func ValidateSchema(kind Kind, raw string) error {
	schemasOnce.Do(compileSchemas)
	if schemasErr != nil {
		return schemasErr
	}

	schema, ok := schemas[kind]
	if !ok {
		return fmt.Errorf("no schema registered for %q", kind)
	}

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return fmt.Errorf("response is not valid JSON: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("response does not match %s schema: %w", kind, err)
	}
	return nil
}
