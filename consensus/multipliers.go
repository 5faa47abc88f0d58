package consensus

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Multipliers maps a provenance name to the factor its confidences are scaled
// by. A nil map scales nothing.
type Multipliers map[string]float64

// Of returns the multiplier for provenance, 1.0 when it has none
func (m Multipliers) Of(provenance string) float64 {
	if v, ok := m[provenance]; ok {
		return v
	}
	return 1.0
}

// Validate checks that every multiplier is a positive finite number
func (m Multipliers) Validate() error {
	for _, name := range m.Names() {
		v := m[name]
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("%w: %q = %v", ErrInvalidMultiplier, name, v)
		}
	}
	return nil
}

// Clone returns a copy that can be handed to concurrent callers while the
// original keeps changing.
func (m Multipliers) Clone() Multipliers {
	if m == nil {
		return nil
	}
	c := make(Multipliers, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Names returns the provenance names in sorted order
func (m Multipliers) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// multiplierFile is the on-disk document shape shared by all formats.
type multiplierFile struct {
	Multipliers map[string]float64 `yaml:"multipliers" toml:"multipliers" json:"multipliers"`
}

// Format identifies a multiplier file encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the encoding from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported multiplier file extension %q", filepath.Ext(path))
	}
}

// ParseMultipliers decodes and validates a multiplier document
func ParseMultipliers(data []byte, format Format) (Multipliers, error) {
	var doc multiplierFile

	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatTOML:
		err = toml.Unmarshal(data, &doc)
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("unsupported multiplier format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s multipliers: %w", format, err)
	}

	m := Multipliers(doc.Multipliers)
	if m == nil {
		m = Multipliers{}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadMultipliers reads a multiplier file, choosing the decoder by extension
func LoadMultipliers(path string) (Multipliers, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading multipliers: %w", err)
	}

	return ParseMultipliers(data, format)
}
