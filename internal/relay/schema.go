package relay

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaSet holds compiled JSON schemas keyed by name. Response bodies are
// checked against the operation's schema before they are decoded.
type SchemaSet struct {
	schemas map[string]*gojsonschema.Schema
}

// NewSchemaSet returns an empty set.
func NewSchemaSet() *SchemaSet {
	return &SchemaSet{schemas: map[string]*gojsonschema.Schema{}}
}

// LoadSchemas compiles every *.json file in dir of fsys. The schema name is
// the file name without its extension.
func LoadSchemas(fsys fs.FS, dir string) (*SchemaSet, error) {
	set := NewSchemaSet()
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read schema dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", entry.Name(), err)
		}
		if err := set.Add(strings.TrimSuffix(entry.Name(), ".json"), data); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// Add compiles raw and registers it under name.
func (s *SchemaSet) Add(name string, raw []byte) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("compile schema %s: %w", name, err)
	}
	s.schemas[name] = schema
	return nil
}

// Has reports whether name is registered.
func (s *SchemaSet) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.schemas[name]
	return ok
}

// Validate checks payload against the named schema.
func (s *SchemaSet) Validate(name string, payload []byte) error {
	schema, ok := s.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("schema %s: %w", name, err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return fmt.Errorf("schema %s: %s", name, strings.Join(problems, "; "))
}
