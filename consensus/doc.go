// Package consensus reconciles the boundary proposals of several independent
// table structure detectors into one agreed set of column and row dividers.
//
// # Pipeline
//
// [Combine] runs four stages over the hypotheses of a single table region:
//
//  1. Spatial precision: one distance tolerance for the region, taken from the
//     measured thickness of drawn rules, else the median gap between adjacent
//     text tokens, else the median token height.
//  2. Conditioning: every point's confidence is scaled by its detector's
//     multiplier, and zero-width or narrow points are widened to the
//     tolerance.
//  3. Clustering: per axis, overlapping points from all detectors are merged
//     with a sort-and-sweep interval merge.
//  4. Acceptance: a cluster is kept when the number of distinct detectors in
//     it reaches the median over all clusters on that axis, or when it holds
//     a drawn rule. Its confidence is the mean of its points' confidences.
//
// Zero hypotheses yield an empty result; a single hypothesis is returned
// unchanged.
//
// # Multipliers
//
// Per-detector confidence multipliers come from an offline tuning run and are
// passed to each call through [Options]. A missing entry, or a nil map, means
// 1.0. [LoadMultipliers] reads them from YAML, TOML or JSON files:
//
//	multipliers:
//	  ruled-line: 1.4
//	  word-gap: 0.8
//
// # Tracing
//
// With Options.Trace set, the [Result] carries a [Trace] listing every
// cluster considered on each axis, why it was accepted or rejected, and the
// median threshold used.
//
// # Concurrency
//
// Combine is a pure function of its arguments. Independent regions can be
// combined in parallel, see [CombineAll]. The multiplier map must not be
// modified while calls that use it are running.
package consensus
