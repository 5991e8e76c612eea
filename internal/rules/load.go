package rules

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed rules.schema.json
var schemaDoc string

//go:embed default_rules.json
var defaultDoc []byte

var ruleSchema = jsonschema.MustCompileString("rules.schema.json", schemaDoc)

// Format is the encoding of a rule document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatForPath picks the document format from the file extension. Unknown
// extensions are treated as JSON, the format the rules were first written in.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// LoadError reports a rule document that exists but cannot be used.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("rules: %v", e.Err)
	}
	return fmt.Sprintf("rules %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads the rule document at path. A missing file is not an error: the
// empty ruleset is returned and every dimension evaluates to its neutral
// default. A file that exists but fails to decode or violates the schema is a
// *LoadError.
func Load(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("rules document not found, using neutral defaults", "component", "rules", "path", path)
			return Empty(), nil
		}
		return nil, &LoadError{Path: path, Err: fmt.Errorf("read: %w", err)}
	}

	rs, err := Parse(data, FormatForPath(path))
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
			return nil, le
		}
		return nil, &LoadError{Path: path, Err: err}
	}
	rs.Source = path
	return rs, nil
}

// Parse decodes and validates a rule document.
func Parse(data []byte, format Format) (*Ruleset, error) {
	normalized, err := normalize(data, format)
	if err != nil {
		return nil, &LoadError{Err: err}
	}

	var instance any
	if err := json.Unmarshal(normalized, &instance); err != nil {
		return nil, &LoadError{Err: fmt.Errorf("decode normalized document: %w", err)}
	}
	if err := ruleSchema.Validate(instance); err != nil {
		return nil, &LoadError{Err: fmt.Errorf("schema: %w", err)}
	}

	rs := Empty()
	if err := json.Unmarshal(normalized, rs); err != nil {
		return nil, &LoadError{Err: fmt.Errorf("decode rules: %w", err)}
	}
	if rs.Engines == nil {
		rs.Engines = map[string]DimensionConfig{}
	}
	if rs.Cross == nil {
		rs.Cross = map[string]Dependency{}
	}
	return rs, nil
}

// Default returns the ruleset bundled with the binary.
func Default() (*Ruleset, error) {
	return Parse(defaultDoc, FormatJSON)
}

// MustDefault is Default for callers that cannot handle an error; the
// bundled document is checked by the package tests.
func MustDefault() *Ruleset {
	rs, err := Default()
	if err != nil {
		panic(err)
	}
	return rs
}

// DefaultDocument returns the bundled rule document as written.
func DefaultDocument() []byte {
	return bytes.Clone(defaultDoc)
}

// normalize converts YAML and TOML documents to JSON so that a single schema
// and a single set of struct tags cover every format.
func normalize(data []byte, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
		return marshalDoc(doc)
	case FormatTOML:
		var doc map[string]any
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
		return marshalDoc(doc)
	default:
		if !json.Valid(data) {
			var probe any
			err := json.Unmarshal(data, &probe)
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
		return data, nil
	}
}

func marshalDoc(doc map[string]any) ([]byte, error) {
	if doc == nil {
		doc = map[string]any{}
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}
	return out, nil
}
