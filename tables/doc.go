// Package tables provides boundary detectors and cell extraction for table
// regions.
//
// A detector looks at the text fragments and drawn lines of one
// [model.Region] and proposes where its column and row dividers are, as a
// [model.BoundaryHypothesis]. Hypotheses from several detectors are
// reconciled by the consensus package; [BuildTable] then carves the region
// into cells along the agreed dividers.
//
// # Detectors
//
// Detectors implement the [Detector] interface. The package provides:
//
//   - [EdgeDetector] ("text-edge") - clusters fragment left and top edges
//   - [WordGapDetector] ("word-gap") - projects text and proposes the whitespace gaps
//   - [RuledLineDetector] ("ruled-line") - groups aligned drawn lines
//
// Detectors are registered globally and can be retrieved by name. Every
// lookup returns a fresh instance:
//
//	detector := tables.GetDetector("word-gap")
//	hypothesis, err := detector.Propose(region)
//
// # Configuration
//
// Detector behavior is controlled by [Config]:
//
//	config := tables.DefaultConfig()
//	config.MaxCellGap = 8
//	detector.Configure(config)
//
// # Cell Extraction
//
// [BuildTable] bounds the grid with the region's edges, places each fragment
// in the cell containing its center, detects cells whose content spills over
// a divider, and scores the result by grid regularity and cell occupancy.
package tables
