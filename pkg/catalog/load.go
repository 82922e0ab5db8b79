package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/histmap/histmap/pkg/polity"
	"gopkg.in/yaml.v3"
)

//go:embed polities.yaml
var builtin []byte

// Format selects the on-disk encoding of a catalog file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// document is the file layout shared by the YAML and JSON encodings.
type document struct {
	Polities []polity.Polity `json:"polities" yaml:"polities"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(builtin, FormatYAML)
	if err != nil {
		panic("catalog: built-in catalog is invalid: " + err.Error())
	}
	return c
}

// Load reads a catalog file. The format is taken from the extension; anything
// that isn't .json is read as YAML.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Parse decodes and validates a catalog document.
func Parse(data []byte, format Format) (*Catalog, error) {
	var doc document
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode json catalog: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode yaml catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
	if len(doc.Polities) == 0 {
		return nil, fmt.Errorf("catalog has no polities")
	}
	return New(doc.Polities)
}

// Encode writes the catalog in the requested format.
func Encode(w io.Writer, c *Catalog, format Format) error {
	doc := document{Polities: c.All()}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported catalog format %q", format)
	}
}
