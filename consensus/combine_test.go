package consensus

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/tsawler/tablevote/model"
)

// hyp builds a hypothesis whose points all carry the detector's name.
func hyp(detector string, cols, rows []model.BoundaryPoint) *model.BoundaryHypothesis {
	h := model.NewBoundaryHypothesis(detector)
	for _, p := range cols {
		if p.Provenance == "" {
			p.Provenance = detector
		}
		h.Add(model.AxisColumns, p)
	}
	for _, p := range rows {
		if p.Provenance == "" {
			p.Provenance = detector
		}
		h.Add(model.AxisRows, p)
	}
	return h
}

func span(min, max, confidence float64) model.BoundaryPoint {
	return model.BoundaryPoint{Min: min, Max: max, Confidence: confidence}
}

func TestCombine_Empty(t *testing.T) {
	result, err := Combine(Input{RegionID: "r"}, Options{Trace: true})
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}

	if len(result.Columns()) != 0 || len(result.Rows()) != 0 {
		t.Errorf("empty input gave %d columns, %d rows", len(result.Columns()), len(result.Rows()))
	}
	if result.Mode != ModeEmpty {
		t.Errorf("Mode = %q, want %q", result.Mode, ModeEmpty)
	}
	if result.Trace == nil || len(result.Trace.Columns.Clusters) != 0 || len(result.Trace.Rows.Clusters) != 0 {
		t.Errorf("empty trace should have no clusters, got %+v", result.Trace)
	}
}

func TestCombine_SinglePassthrough(t *testing.T) {
	h := hyp("word-gap",
		[]model.BoundaryPoint{span(100, 110, 0.4), span(200, 230, 0.7)},
		[]model.BoundaryPoint{span(50, 52, 0.9)},
	)
	h.Metadata = map[string]string{"source": "test"}

	opts := Options{Multipliers: Multipliers{"word-gap": 3}, Trace: true}
	result, err := Combine(Input{Hypotheses: []*model.BoundaryHypothesis{h}}, opts)
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}

	if !reflect.DeepEqual(result.Consensus, h) {
		t.Errorf("passthrough changed the hypothesis:\n got %+v\nwant %+v", result.Consensus, h)
	}
	if result.Consensus == h {
		t.Error("passthrough should return a copy, not the caller's hypothesis")
	}
	if result.Mode != ModePassthrough || result.Trace.Mode != ModePassthrough {
		t.Errorf("Mode = %q / %q, want passthrough", result.Mode, result.Trace.Mode)
	}

	for _, axis := range []model.Axis{model.AxisColumns, model.AxisRows} {
		clusters := result.Trace.Axis(axis).Clusters
		if len(clusters) != len(h.Points(axis)) {
			t.Fatalf("%s: %d traced clusters, want %d", axis, len(clusters), len(h.Points(axis)))
		}
		for _, c := range clusters {
			if c.Reason != ReasonPassthrough {
				t.Errorf("%s: reason = %s, want passthrough", axis, c.Reason)
			}
		}
	}
}

func TestCombine_AgreementBeatsLoneConfidence(t *testing.T) {
	hyps := []*model.BoundaryHypothesis{
		hyp("word-gap", []model.BoundaryPoint{span(145, 155, 0.3)}, nil),
		hyp("text-edge", []model.BoundaryPoint{span(148, 158, 0.3)}, nil),
		hyp("layout-lib", []model.BoundaryPoint{span(495, 505, 1.0)}, nil),
	}

	result, err := Combine(Input{Hypotheses: hyps}, Options{Trace: true})
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}

	cols := result.Columns()
	if len(cols) != 1 {
		t.Fatalf("got %d columns, want 1: %+v", len(cols), cols)
	}
	if cols[0].Min < 145 || cols[0].Max > 158 {
		t.Errorf("accepted divider at %v, want near 150", cols[0].Min)
	}

	trace := result.Trace.Columns
	if trace.MedianMethodCount != 1.5 {
		t.Errorf("MedianMethodCount = %v, want 1.5", trace.MedianMethodCount)
	}
	if len(trace.Clusters) != 2 {
		t.Fatalf("traced %d clusters, want 2", len(trace.Clusters))
	}
	if trace.Clusters[0].Reason != ReasonAboveThreshold {
		t.Errorf("cluster near 150 reason = %s, want above_threshold", trace.Clusters[0].Reason)
	}
	if trace.Clusters[1].Reason != ReasonRejected {
		t.Errorf("cluster near 500 reason = %s, want rejected", trace.Clusters[1].Reason)
	}
}

func TestCombine_RuledLineOverride(t *testing.T) {
	ruled := hyp("ruled-line", []model.BoundaryPoint{model.NewExactPoint(500, 0.2, model.ProvenanceRuledLine)}, nil)
	hyps := []*model.BoundaryHypothesis{
		hyp("word-gap", []model.BoundaryPoint{span(145, 155, 0.3)}, nil),
		hyp("text-edge", []model.BoundaryPoint{span(148, 158, 0.3)}, nil),
		ruled,
	}

	result, err := Combine(Input{Hypotheses: hyps}, Options{Trace: true})
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}

	cols := result.Columns()
	if len(cols) != 2 {
		t.Fatalf("got %d columns, want 2: %+v", len(cols), cols)
	}
	if cols[1].Min != 500 {
		t.Errorf("ruled divider at %v, want 500", cols[1].Min)
	}
	if r := result.Trace.Columns.Clusters[1].Reason; r != ReasonRuledLineOverride {
		t.Errorf("reason = %s, want ruled_line_override", r)
	}
}

func TestCombine_ConfidenceIsMeanOfScaled(t *testing.T) {
	hyps := []*model.BoundaryHypothesis{
		hyp("A", []model.BoundaryPoint{span(100, 110, 0.9)}, nil),
		hyp("B", []model.BoundaryPoint{span(102, 112, 0.9)}, nil),
	}
	opts := Options{Multipliers: Multipliers{"A": 2.0, "B": 0.5}}

	result, err := Combine(Input{Hypotheses: hyps}, opts)
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}

	cols := result.Columns()
	if len(cols) != 1 {
		t.Fatalf("got %d columns, want 1", len(cols))
	}
	if cols[0].Confidence != 1.125 {
		t.Errorf("Confidence = %v, want 1.125", cols[0].Confidence)
	}
	if cols[0].Provenance != model.ProvenanceConsensus {
		t.Errorf("Provenance = %q, want consensus", cols[0].Provenance)
	}
}

func TestCombine_ManyWeakPointsDoNotOutvote(t *testing.T) {
	noisy := hyp("noisy", []model.BoundaryPoint{
		span(300, 310, 0.1), span(301, 311, 0.1), span(302, 312, 0.1), span(303, 313, 0.1),
	}, nil)
	hyps := []*model.BoundaryHypothesis{
		noisy,
		hyp("A", []model.BoundaryPoint{span(100, 110, 0.9)}, nil),
		hyp("B", []model.BoundaryPoint{span(102, 112, 0.9)}, nil),
	}

	result, err := Combine(Input{Hypotheses: hyps}, Options{Trace: true})
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}

	cols := result.Columns()
	if len(cols) != 1 || cols[0].Min > 112 {
		t.Fatalf("expected only the agreed divider near 105, got %+v", cols)
	}
	noisyTrace := result.Trace.Columns.Clusters[1]
	if noisyTrace.PointCount != 4 || noisyTrace.DistinctCount != 1 {
		t.Errorf("noisy cluster counts = %d points / %d distinct, want 4/1",
			noisyTrace.PointCount, noisyTrace.DistinctCount)
	}
	if math.Abs(noisyTrace.Confidence-0.1) > 1e-12 {
		t.Errorf("noisy cluster confidence = %v, want mean 0.1", noisyTrace.Confidence)
	}
}

func TestCombine_Deterministic(t *testing.T) {
	build := func() []*model.BoundaryHypothesis {
		ruled := hyp("ruled-line", []model.BoundaryPoint{model.NewExactPoint(110, 1, model.ProvenanceRuledLine)},
			[]model.BoundaryPoint{model.NewExactPoint(80, 1, model.ProvenanceRuledLine)})
		ruled.RuleThickness = 1.5
		return []*model.BoundaryHypothesis{
			hyp("word-gap", []model.BoundaryPoint{span(100, 120, 0.6), span(300, 300, 0.4)},
				[]model.BoundaryPoint{span(40, 44, 0.5)}),
			hyp("text-edge", []model.BoundaryPoint{span(100, 120, 0.6), span(300, 302, 0.9)},
				[]model.BoundaryPoint{span(41, 45, 0.7)}),
			ruled,
		}
	}

	in := Input{Hypotheses: build(), Tokens: []model.BBox{model.NewBBox(0, 0, 20, 10), model.NewBBox(25, 0, 20, 10)}}
	opts := Options{Multipliers: Multipliers{"word-gap": 0.7, "ruled-line": 1.3}, Trace: true}

	first, err := Combine(in, opts)
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Combine(Input{Hypotheses: build(), Tokens: in.Tokens}, opts)
		if err != nil {
			t.Fatalf("Combine() error = %v", err)
		}
		a, _ := json.Marshal(first)
		b, _ := json.Marshal(again)
		if string(a) != string(b) {
			t.Fatalf("run %d differs:\n%s\n%s", i, a, b)
		}
	}
}

func TestCombine_AxisIndependence(t *testing.T) {
	cols := func() []model.BoundaryPoint {
		return []model.BoundaryPoint{span(100, 110, 0.8), span(200, 210, 0.8)}
	}
	agreeRows := []*model.BoundaryHypothesis{
		hyp("A", cols(), []model.BoundaryPoint{span(50, 55, 0.5)}),
		hyp("B", cols(), []model.BoundaryPoint{span(50, 55, 0.5)}),
		hyp("C", cols(), []model.BoundaryPoint{span(50, 55, 0.5)}),
	}
	disagreeRows := []*model.BoundaryHypothesis{
		hyp("A", cols(), []model.BoundaryPoint{span(10, 12, 0.5)}),
		hyp("B", cols(), []model.BoundaryPoint{span(60, 62, 0.5), span(90, 92, 0.5)}),
		hyp("C", cols(), []model.BoundaryPoint{span(140, 142, 0.5)}),
	}

	r1, err := Combine(Input{Hypotheses: agreeRows}, Options{})
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}
	r2, err := Combine(Input{Hypotheses: disagreeRows}, Options{})
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}

	if !reflect.DeepEqual(r1.Columns(), r2.Columns()) {
		t.Errorf("row disagreement changed columns:\n%+v\n%+v", r1.Columns(), r2.Columns())
	}
	if len(r1.Rows()) != 1 {
		t.Errorf("agreeing rows gave %d dividers, want 1", len(r1.Rows()))
	}
	// Every row cluster has one detector, so the median is 1 and all pass
	if len(r2.Rows()) != 4 {
		t.Errorf("disagreeing rows gave %d dividers, want 4", len(r2.Rows()))
	}
}

func TestCombine_AllPointsIdentical(t *testing.T) {
	hyps := []*model.BoundaryHypothesis{
		hyp("A", []model.BoundaryPoint{model.NewExactPoint(100, 0.5, "A")}, nil),
		hyp("B", []model.BoundaryPoint{model.NewExactPoint(100, 0.5, "B")}, nil),
	}

	result, err := Combine(Input{Hypotheses: hyps}, Options{})
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}
	cols := result.Columns()
	if len(cols) != 1 || cols[0].Min != 100 || cols[0].Confidence != 0.5 {
		t.Errorf("identical points gave %+v, want one divider at 100", cols)
	}
	if result.Tolerance != 0 || result.PrecisionSource != PrecisionNone {
		t.Errorf("tolerance = %v (%s), want 0 (none)", result.Tolerance, result.PrecisionSource)
	}
}

func TestCombine_ExtremePositionsStayFinite(t *testing.T) {
	hyps := []*model.BoundaryHypothesis{
		hyp("A", []model.BoundaryPoint{model.NewExactPoint(math.MaxFloat64, 1, "A")},
			[]model.BoundaryPoint{model.NewExactPoint(-math.MaxFloat64, 1, "A")}),
		hyp("B", []model.BoundaryPoint{model.NewExactPoint(math.MaxFloat64, 1, "B")},
			[]model.BoundaryPoint{model.NewExactPoint(-math.MaxFloat64, 1, "B")}),
	}

	result, err := Combine(Input{Hypotheses: hyps}, Options{})
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}

	cols, rows := result.Columns(), result.Rows()
	if len(cols) != 1 || cols[0].Min != math.MaxFloat64 || cols[0].Max != math.MaxFloat64 {
		t.Errorf("columns = %+v, want one divider at MaxFloat64", cols)
	}
	if len(rows) != 1 || rows[0].Min != -math.MaxFloat64 {
		t.Errorf("rows = %+v, want one divider at -MaxFloat64", rows)
	}

	// The consensus must be valid input for another round
	if _, err := Combine(Input{Hypotheses: []*model.BoundaryHypothesis{result.Consensus, hyps[0]}}, Options{}); err != nil {
		t.Errorf("Combine() rejected its own output: %v", err)
	}
}

func TestCombine_OutputAscending(t *testing.T) {
	hyps := []*model.BoundaryHypothesis{
		hyp("A", []model.BoundaryPoint{span(400, 410, 0.5), span(100, 110, 0.5), span(250, 260, 0.5)}, nil),
		hyp("B", []model.BoundaryPoint{span(252, 262, 0.5), span(402, 412, 0.5), span(102, 112, 0.5)}, nil),
	}

	result, err := Combine(Input{Hypotheses: hyps}, Options{})
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}
	cols := result.Columns()
	if len(cols) != 3 {
		t.Fatalf("got %d columns, want 3", len(cols))
	}
	for i := 1; i < len(cols); i++ {
		if cols[i].Min <= cols[i-1].Min {
			t.Errorf("columns not strictly ascending: %+v", cols)
		}
	}
}

func TestCombine_DoesNotMutateInput(t *testing.T) {
	a := hyp("A", []model.BoundaryPoint{model.NewExactPoint(100, 0.5, "A")}, nil)
	b := hyp("B", []model.BoundaryPoint{model.NewExactPoint(101, 0.5, "B")}, nil)
	before := []*model.BoundaryHypothesis{a.Clone(), b.Clone()}

	tokens := []model.BBox{model.NewBBox(0, 0, 10, 10), model.NewBBox(14, 0, 10, 10)}
	_, err := Combine(Input{Hypotheses: []*model.BoundaryHypothesis{a, b}, Tokens: tokens},
		Options{Multipliers: Multipliers{"A": 2}})
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}

	if !reflect.DeepEqual(a, before[0]) || !reflect.DeepEqual(b, before[1]) {
		t.Error("Combine() modified its input hypotheses")
	}
}

func TestCombine_InvalidInput(t *testing.T) {
	valid := hyp("A", []model.BoundaryPoint{span(1, 2, 0.5)}, nil)

	tests := []struct {
		name string
		in   Input
		opts Options
		want error
	}{
		{
			name: "min greater than max",
			in:   Input{Hypotheses: []*model.BoundaryHypothesis{valid, hyp("B", []model.BoundaryPoint{span(5, 4, 0.5)}, nil)}},
			want: ErrInvalidHypothesis,
		},
		{
			name: "NaN confidence",
			in:   Input{Hypotheses: []*model.BoundaryHypothesis{hyp("B", nil, []model.BoundaryPoint{span(1, 2, math.NaN())})}},
			want: ErrInvalidHypothesis,
		},
		{
			name: "infinite position",
			in:   Input{Hypotheses: []*model.BoundaryHypothesis{valid, hyp("B", []model.BoundaryPoint{span(1, math.Inf(1), 0.5)}, nil)}},
			want: ErrInvalidHypothesis,
		},
		{
			name: "empty provenance",
			in: Input{Hypotheses: []*model.BoundaryHypothesis{valid, {
				Detector: "B", Columns: []model.BoundaryPoint{{Min: 1, Max: 2}},
			}}},
			want: ErrInvalidHypothesis,
		},
		{
			name: "nil hypothesis",
			in:   Input{Hypotheses: []*model.BoundaryHypothesis{valid, nil}},
			want: ErrInvalidHypothesis,
		},
		{
			name: "negative rule thickness",
			in:   Input{Hypotheses: []*model.BoundaryHypothesis{{Detector: "R", RuleThickness: -1}}},
			want: ErrInvalidHypothesis,
		},
		{
			name: "zero multiplier",
			in:   Input{Hypotheses: []*model.BoundaryHypothesis{valid}},
			opts: Options{Multipliers: Multipliers{"A": 0}},
			want: ErrInvalidMultiplier,
		},
		{
			name: "NaN token",
			in:   Input{Hypotheses: []*model.BoundaryHypothesis{valid}, Tokens: []model.BBox{{X: math.NaN()}}},
			want: ErrInvalidEvidence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Combine(tt.in, tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("Combine() error = %v, want %v", err, tt.want)
			}
			if result != nil {
				t.Error("Combine() should not return a result on error")
			}
		})
	}
}

func TestPointError(t *testing.T) {
	bad := hyp("B", []model.BoundaryPoint{span(1, 2, 0.5), span(9, 3, 0.5)}, nil)

	_, err := Combine(Input{Hypotheses: []*model.BoundaryHypothesis{bad, bad}}, Options{})

	var pe *PointError
	if !errors.As(err, &pe) {
		t.Fatalf("error %v is not a *PointError", err)
	}
	if pe.Detector != "B" || pe.Axis != model.AxisColumns || pe.Index != 1 {
		t.Errorf("PointError = %+v, want detector B columns[1]", pe)
	}
}

func BenchmarkCombine(b *testing.B) {
	var hyps []*model.BoundaryHypothesis
	for d := 0; d < 8; d++ {
		h := model.NewBoundaryHypothesis(string(rune('A' + d)))
		for i := 0; i < 50; i++ {
			pos := float64(i*20 + d)
			h.Add(model.AxisColumns, model.BoundaryPoint{Min: pos, Max: pos + 4, Confidence: 0.5, Provenance: h.Detector})
			h.Add(model.AxisRows, model.BoundaryPoint{Min: pos, Max: pos + 2, Confidence: 0.5, Provenance: h.Detector})
		}
		hyps = append(hyps, h)
	}
	in := Input{Hypotheses: hyps}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Combine(in, Options{Trace: true})
	}
}
