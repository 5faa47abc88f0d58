package consensus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tsawler/tablevote/model"
)

// ============================================================================
// Reason
// ============================================================================

func TestReason_Text(t *testing.T) {
	for _, r := range []Reason{ReasonRejected, ReasonAboveThreshold, ReasonRuledLineOverride, ReasonPassthrough} {
		text, err := r.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d) error = %v", r, err)
		}
		if string(text) != r.String() {
			t.Errorf("MarshalText() = %q, String() = %q", text, r.String())
		}

		var back Reason
		if err := back.UnmarshalText(text); err != nil || back != r {
			t.Errorf("UnmarshalText(%q) = %v, %v; want %v", text, back, err, r)
		}
	}
}

func TestReason_Unknown(t *testing.T) {
	if _, err := Reason(42).MarshalText(); err == nil {
		t.Error("MarshalText() of unknown reason should fail")
	}
	if got := Reason(42).String(); got != "Reason(42)" {
		t.Errorf("String() = %q, want Reason(42)", got)
	}

	var r Reason
	if err := r.UnmarshalText([]byte("maybe")); err == nil {
		t.Error("UnmarshalText() of unknown label should fail")
	}
}

func TestReason_Accepted(t *testing.T) {
	if ReasonRejected.Accepted() {
		t.Error("rejected should not be accepted")
	}
	for _, r := range []Reason{ReasonAboveThreshold, ReasonRuledLineOverride, ReasonPassthrough} {
		if !r.Accepted() {
			t.Errorf("%s should be accepted", r)
		}
	}
}

func TestTrace_JSON(t *testing.T) {
	in := Input{Hypotheses: []*model.BoundaryHypothesis{
		hyp("A", []model.BoundaryPoint{span(10, 10, 1)}, nil),
		hyp("B", []model.BoundaryPoint{span(10, 10, 1)}, nil),
	}}

	result, err := Combine(in, Options{Trace: true})
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}

	data, err := json.Marshal(result.Trace)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	var decoded Trace
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if decoded.Columns.Clusters[0].Reason != ReasonAboveThreshold {
		t.Errorf("decoded reason = %s, want above_threshold", decoded.Columns.Clusters[0].Reason)
	}
	if decoded.Mode != ModeClustered {
		t.Errorf("decoded mode = %s, want clustered", decoded.Mode)
	}
}

// ============================================================================
// Multipliers
// ============================================================================

func TestParseMultipliers(t *testing.T) {
	want := Multipliers{"ruled-line": 2, "word-gap": 0.5}

	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{"yaml", FormatYAML, "multipliers:\n  ruled-line: 2\n  word-gap: 0.5\n"},
		{"toml", FormatTOML, "[multipliers]\n\"ruled-line\" = 2.0\n\"word-gap\" = 0.5\n"},
		{"json", FormatJSON, `{"multipliers": {"ruled-line": 2, "word-gap": 0.5}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMultipliers([]byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("ParseMultipliers() error = %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("ParseMultipliers() = %v, want %v", got, want)
			}
		})
	}
}

func TestParseMultipliers_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
		target error
	}{
		{"zero", FormatYAML, "multipliers:\n  a: 0\n", ErrInvalidMultiplier},
		{"negative", FormatJSON, `{"multipliers": {"a": -1}}`, ErrInvalidMultiplier},
		{"malformed", FormatJSON, `{"multipliers": `, nil},
		{"unknown format", Format("ini"), "a=1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMultipliers([]byte(tt.data), tt.format)
			if err == nil {
				t.Fatal("ParseMultipliers() expected error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("error = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestParseMultipliers_EmptyDocument(t *testing.T) {
	got, err := ParseMultipliers([]byte("other: 1\n"), FormatYAML)
	if err != nil {
		t.Fatalf("ParseMultipliers() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ParseMultipliers() = %v, want empty map", got)
	}
}

func TestLoadMultipliers(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "weights.yml")
	if err := os.WriteFile(path, []byte("multipliers:\n  text-edge: 1.5\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	m, err := LoadMultipliers(path)
	if err != nil {
		t.Fatalf("LoadMultipliers() error = %v", err)
	}
	if m.Of("text-edge") != 1.5 || m.Of("other") != 1.0 {
		t.Errorf("LoadMultipliers() = %v", m)
	}

	if _, err := LoadMultipliers(filepath.Join(dir, "weights.ini")); err == nil {
		t.Error("LoadMultipliers() should reject unknown extensions")
	}
	if _, err := LoadMultipliers(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("LoadMultipliers() should fail for a missing file")
	}
}

func TestMultipliers_Validate(t *testing.T) {
	tests := []struct {
		name    string
		m       Multipliers
		wantErr bool
	}{
		{"nil", nil, false},
		{"positive", Multipliers{"a": 0.01, "b": 100}, false},
		{"zero", Multipliers{"a": 0}, true},
		{"nan", Multipliers{"a": math.NaN()}, true},
		{"inf", Multipliers{"a": math.Inf(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.m.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMultipliers_Clone(t *testing.T) {
	m := Multipliers{"a": 2}
	c := m.Clone()
	c["a"] = 3
	if m["a"] != 2 {
		t.Error("Clone() shares storage with the original")
	}
	if Multipliers(nil).Clone() != nil {
		t.Error("Clone() of nil should be nil")
	}
}

// ============================================================================
// Batch
// ============================================================================

func batchInputs(n int) []Input {
	inputs := make([]Input, n)
	for i := range inputs {
		pos := float64(10 * (i + 1))
		inputs[i] = Input{
			RegionID: fmt.Sprintf("region-%d", i),
			Hypotheses: []*model.BoundaryHypothesis{
				hyp("A", []model.BoundaryPoint{span(pos, pos, 1)}, nil),
				hyp("B", []model.BoundaryPoint{span(pos, pos, 1)}, nil),
			},
		}
	}
	return inputs
}

func TestCombineAll_PreservesOrder(t *testing.T) {
	inputs := batchInputs(20)

	results, err := CombineAll(context.Background(), inputs, Options{}, 4)
	if err != nil {
		t.Fatalf("CombineAll() error = %v", err)
	}
	if len(results) != len(inputs) {
		t.Fatalf("CombineAll() = %d results, want %d", len(results), len(inputs))
	}

	for i, r := range results {
		if r.RegionID != inputs[i].RegionID {
			t.Errorf("results[%d].RegionID = %q, want %q", i, r.RegionID, inputs[i].RegionID)
		}
		want := float64(10 * (i + 1))
		if cols := r.Columns(); len(cols) != 1 || cols[0].Min != want {
			t.Errorf("results[%d] columns = %+v, want one at %v", i, cols, want)
		}
	}
}

func TestCombineAll_Error(t *testing.T) {
	inputs := batchInputs(5)
	inputs[3].Hypotheses[0].Columns[0].Min = 1000

	_, err := CombineAll(context.Background(), inputs, Options{}, 0)
	if !errors.Is(err, ErrInvalidHypothesis) {
		t.Errorf("CombineAll() error = %v, want ErrInvalidHypothesis", err)
	}
}

func TestCombineAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := CombineAll(ctx, batchInputs(3), Options{}, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("CombineAll() error = %v, want context.Canceled", err)
	}
}

func TestCombineAll_Empty(t *testing.T) {
	results, err := CombineAll(context.Background(), nil, Options{}, 2)
	if err != nil || len(results) != 0 {
		t.Errorf("CombineAll(nil) = %v, %v", results, err)
	}
}
