package tables

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tsawler/tablevote/model"
)

// Detector is the interface for boundary detection algorithms. A detector
// looks at one region and proposes where its column and row dividers are.
type Detector interface {
	// Propose returns the detector's boundary hypothesis for a region
	Propose(region *model.Region) (*model.BoundaryHypothesis, error)

	// Name returns the detector name, also used as point provenance
	Name() string

	// Configure sets detector parameters
	Configure(config Config) error
}

// Config holds detector configuration
type Config struct {
	// Minimum fragments that must share a column edge
	MinRows int

	// Minimum fragments that must share a row edge
	MinCols int

	// Points below this confidence are not proposed (0-1)
	MinConfidence float64

	// Minimum horizontal whitespace between cells (points)
	MaxCellGap float64

	// Minimum vertical whitespace between rows (points)
	MinRowGap float64

	// Tolerance for row/column alignment (points)
	AlignmentTolerance float64

	// Drawn lines shorter than this are ignored (points)
	MinLineLength float64
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		MinRows:            2,
		MinCols:            2,
		MinConfidence:      0.1,
		MaxCellGap:         5.0,
		MinRowGap:          1.0,
		AlignmentTolerance: 2.0,
		MinLineLength:      10.0,
	}
}

// Validate checks that the configuration is usable
func (c Config) Validate() error {
	switch {
	case c.MinRows < 1 || c.MinCols < 1:
		return fmt.Errorf("tables: MinRows and MinCols must be at least 1, got %d and %d", c.MinRows, c.MinCols)
	case c.MinConfidence < 0 || c.MinConfidence > 1:
		return fmt.Errorf("tables: MinConfidence must be within [0, 1], got %v", c.MinConfidence)
	case c.MaxCellGap < 0 || c.MinRowGap < 0:
		return fmt.Errorf("tables: gap thresholds must not be negative")
	case c.AlignmentTolerance < 0 || c.MinLineLength < 0:
		return fmt.Errorf("tables: tolerances must not be negative")
	}
	return nil
}

// Factory creates a fresh detector with default configuration
type Factory func() Detector

// DetectorRegistry holds registered detector factories. It is safe for
// concurrent use.
type DetectorRegistry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new detector registry
func NewRegistry() *DetectorRegistry {
	return &DetectorRegistry{
		factories: make(map[string]Factory),
	}
}

// Register registers a detector factory under name, replacing any previous one
func (r *DetectorRegistry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new detector for name, or nil if none is registered. Every
// call returns its own instance so callers may Configure it freely.
func (r *DetectorRegistry) Get(name string) Detector {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return factory()
}

// List returns all registered detector names in sorted order
func (r *DetectorRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Global registry
var globalRegistry = NewRegistry()

// RegisterDetector registers a detector factory globally
func RegisterDetector(name string, factory Factory) {
	globalRegistry.Register(name, factory)
}

// GetDetector returns a new detector by name, nil if unknown
func GetDetector(name string) Detector {
	return globalRegistry.Get(name)
}

// ListDetectors returns all registered detector names
func ListDetectors() []string {
	return globalRegistry.List()
}

func init() {
	// Register default detectors
	RegisterDetector(model.ProvenanceTextEdge, func() Detector { return NewEdgeDetector() })
	RegisterDetector(model.ProvenanceWordGap, func() Detector { return NewWordGapDetector() })
	RegisterDetector(model.ProvenanceRuledLine, func() Detector { return NewRuledLineDetector() })
}

// checkRegion rejects regions no detector can work with.
func checkRegion(region *model.Region) error {
	if region == nil {
		return fmt.Errorf("tables: nil region")
	}
	if !region.BBox.IsFinite() || !region.BBox.IsValid() {
		return fmt.Errorf("tables: region %q has invalid bounds %+v", region.ID, region.BBox)
	}
	return nil
}
