package validator

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/truwl/capanno-utils/internal/domain"
)

//go:embed schemas/records.schema.json
var recordsSchemaJSON []byte

var (
	schemaOnce sync.Once
	schemaDefs map[string]*jsonschema.Schema
	schemaErr  error

	resolvedMu sync.Mutex
	resolved   = map[domain.RecordKind]*jsonschema.Resolved{}
)

// ValidateRecordSchema checks a JSON-shaped document against the schema of
// kind and returns the problems found.
func ValidateRecordSchema(kind domain.RecordKind, document any) []string {
	schema, err := recordSchema(kind)
	if err != nil {
		return []string{err.Error()}
	}
	if err := schema.Validate(document); err != nil {
		return []string{err.Error()}
	}
	return nil
}

func recordSchema(kind domain.RecordKind) (*jsonschema.Resolved, error) {
	resolvedMu.Lock()
	defer resolvedMu.Unlock()
	if schema, ok := resolved[kind]; ok {
		return schema, nil
	}

	defs, err := loadDefs()
	if err != nil {
		return nil, err
	}
	if _, ok := defs[string(kind)]; !ok {
		return nil, fmt.Errorf("no schema for %s records", kind)
	}
	root := &jsonschema.Schema{
		Defs: defs,
		Ref:  "#/$defs/" + string(kind),
	}
	schema, err := root.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve %s schema: %w", kind, err)
	}
	resolved[kind] = schema
	return schema, nil
}

func loadDefs() (map[string]*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		var file jsonschema.Schema
		if err := json.Unmarshal(recordsSchemaJSON, &file); err != nil {
			schemaErr = fmt.Errorf("parse record schemas: %w", err)
			return
		}
		schemaDefs = file.Defs
	})
	return schemaDefs, schemaErr
}
