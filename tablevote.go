// Package tablevote reconciles competing table-structure detectors into one
// set of column and row dividers, and extracts the table those dividers
// describe.
//
// Basic usage:
//
//	table, warnings, err := tablevote.For(region).Table()
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", tablevote.FormatWarnings(warnings))
//	}
//
// With options:
//
//	result, _, err := tablevote.For(region).
//	    Detectors("ruled-line", "word-gap").
//	    Multipliers(consensus.Multipliers{"word-gap": 0.5}).
//	    Trace().
//	    Boundaries()
//
// The consensus, tables and model packages can also be used directly.
package tablevote

import (
	"github.com/tsawler/tablevote/model"
)

// Version is the release of the module, reported by the CLI.
const Version = "0.3.0"

// For returns an Extractor for one region. Configuration methods return new
// Extractors, so a base Extractor can be shared and specialised.
//
// Example:
//
//	result, warnings, err := tablevote.For(region).Boundaries()
func For(region *model.Region) *Extractor {
	e := &Extractor{
		region:  region,
		options: defaultOptions(),
	}
	if region == nil {
		e.err = errNilRegion
	}
	return e
}

// Must is a helper that wraps a call to Boundaries() or Table() and panics if
// the error is non-nil. It discards warnings and returns just the value.
// It is intended for use in scripts or tests where error handling would be
// cumbersome.
//
// Example:
//
//	table := tablevote.Must(tablevote.For(region).Table())
func Must[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
