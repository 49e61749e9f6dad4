package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const manifestSchemaURL = "https://aotbridge/schemas/manifest.schema.json"

//go:embed manifest.schema.json
var manifestSchemaSource []byte

var (
	manifestSchemaOnce sync.Once
	manifestSchema     *jsonschema.Schema
	manifestSchemaErr  error
)

// Manifest is the YAML form of a catalog, used to drive the resolver
// without the C# front end.
type Manifest struct {
	Types []*TypeDescriptor `yaml:"types"`
}

// LoadManifest reads a manifest file and returns a linked catalog.
func LoadManifest(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return ParseManifest(data, path)
}

// ParseManifest parses manifest content. The path argument is used only
// for error messages and default positions.
func ParseManifest(data []byte, path string) (*Catalog, error) {
	if err := ValidateManifest(data); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	c := New()
	for i, t := range m.Types {
		if t == nil {
			return nil, fmt.Errorf("%s: types[%d] is empty", path, i)
		}
		if t.Kind == "" {
			t.Kind = KindClass
		}
		if !t.Pos.IsValid() {
			t.Pos.File = path
		}
		for j := range t.Methods {
			if t.Methods[j].Return.Name == "" {
				t.Methods[j].Return = TypeRef{Name: "void"}
			}
		}
		if err := c.Add(t); err != nil {
			return nil, fmt.Errorf("%s: types[%d]: %w", path, i, err)
		}
	}
	c.Link()
	return c, nil
}

// Manifest snapshots the catalog in manifest form.
func (c *Catalog) Manifest() *Manifest {
	return &Manifest{Types: c.types}
}

// MarshalManifest renders the catalog as manifest YAML.
func (c *Catalog) MarshalManifest() ([]byte, error) {
	return yaml.Marshal(c.Manifest())
}

// ValidateManifest checks manifest YAML against the embedded JSON schema,
// catching misspelled keys that YAML decoding would silently drop.
func ValidateManifest(data []byte) error {
	schema, err := loadManifestSchema()
	if err != nil {
		return fmt.Errorf("failed to compile manifest schema: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	// Round-trip through JSON so the validator sees JSON value types.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to normalize manifest for schema validation: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("failed to normalize manifest for schema validation: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func loadManifestSchema() (*jsonschema.Schema, error) {
	manifestSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(manifestSchemaURL, bytes.NewReader(manifestSchemaSource)); err != nil {
			manifestSchemaErr = err
			return
		}
		manifestSchema, manifestSchemaErr = compiler.Compile(manifestSchemaURL)
	})
	return manifestSchema, manifestSchemaErr
}
