package tablevote

import (
	"fmt"
	"strings"
)

// Warning is a non-fatal issue found while extracting a region. The result is
// still usable but may be less reliable.
type Warning struct {
	RegionID string
	Source   string // Detector name, or "consensus"
	Message  string
}

func (w Warning) String() string {
	if w.Source == "" {
		return fmt.Sprintf("region %s: %s", w.RegionID, w.Message)
	}
	return fmt.Sprintf("region %s: %s: %s", w.RegionID, w.Source, w.Message)
}

// FormatWarnings joins warnings into one line each.
func FormatWarnings(warnings []Warning) string {
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}
