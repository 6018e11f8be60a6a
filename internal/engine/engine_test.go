package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/ppiankov/medimatch/internal/dataset"
	"github.com/ppiankov/medimatch/internal/model"
)

func buildKnowledge(t *testing.T, tables dataset.Tables) *dataset.Knowledge {
	t.Helper()
	k, err := dataset.Build(tables, nil)
	if err != nil {
		t.Fatalf("build knowledge: %v", err)
	}
	return k
}

func newEngine(t *testing.T, k *dataset.Knowledge, opts Options) *Engine {
	t.Helper()
	e, err := New(k, opts, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

// fluCold is the reference scenario: Flu={fever:3, cough:2}, Cold={cough:2, headache:1}
func fluCold(t *testing.T) *Engine {
	t.Helper()
	k := buildKnowledge(t, dataset.Tables{
		Symptoms: []string{"fever", "cough", "headache"},
		Profiles: []dataset.ProfileRow{
			{Disease: "Flu", Symptoms: []string{"fever", "cough"}},
			{Disease: "Cold", Symptoms: []string{"cough", "headache"}},
		},
		Severity: []dataset.SeverityRow{
			{Symptom: "fever", Weight: 3},
			{Symptom: "cough", Weight: 2},
			{Symptom: "headache", Weight: 1},
		},
		Descriptions: map[string]string{"Flu": "Influenza."},
		Precautions:  map[string][]string{"Flu": {"rest", "fluids"}},
	})
	return newEngine(t, k, DefaultOptions())
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMatch_FullMatch(t *testing.T) {
	e := fluCold(t)

	result := e.Match(model.NewSymptomSet("fever", "cough"))

	if result.Disease != "Flu" {
		t.Fatalf("expected Flu, got %s", result.Disease)
	}
	if result.Confidence != 1.0 {
		t.Errorf("expected confidence exactly 1.0, got %v", result.Confidence)
	}
	if len(result.Missing) != 0 {
		t.Errorf("expected no missing symptoms, got %v", result.Missing)
	}
	if len(result.Matched) != 2 || result.Matched[0] != "fever" || result.Matched[1] != "cough" {
		t.Errorf("expected matched ordered by severity [fever cough], got %v", result.Matched)
	}
	if result.Description != "Influenza." {
		t.Errorf("unexpected description %q", result.Description)
	}
	if len(result.Precautions) != 2 || result.Precautions[0] != "rest" {
		t.Errorf("unexpected precautions %v", result.Precautions)
	}
	if result.Threshold != 0.4 {
		t.Errorf("expected threshold 0.4 reported, got %v", result.Threshold)
	}
}

func TestMatch_BelowThreshold(t *testing.T) {
	e := fluCold(t)

	result := e.Match(model.NewSymptomSet("headache"))

	if !result.IsUnknown() {
		t.Fatalf("expected %s, got %s", model.UnknownCondition, result.Disease)
	}
	if !approx(result.Confidence, 1.0/3.0) {
		t.Errorf("expected confidence 1/3, got %v", result.Confidence)
	}
	if len(result.Matched) != 0 || len(result.Missing) != 0 || len(result.Precautions) != 0 {
		t.Errorf("expected empty matched/missing/precautions, got %+v", result)
	}
	if result.Description != UnknownDescription {
		t.Errorf("expected generic description, got %q", result.Description)
	}
	if len(result.Unmatched) != 1 || result.Unmatched[0] != "headache" {
		t.Errorf("expected user symptoms reported as unmatched, got %v", result.Unmatched)
	}
	if result.Severity != model.SeverityUnknown {
		t.Errorf("expected unknown severity, got %s", result.Severity)
	}
}

func TestMatch_EmptyInput(t *testing.T) {
	e := fluCold(t)

	result := e.Match(model.NewSymptomSet())

	if !result.IsUnknown() || result.Confidence != 0 {
		t.Errorf("expected unknown with confidence 0, got %s / %v", result.Disease, result.Confidence)
	}
}

func TestMatch_ZeroScoreIsUnknownEvenWithZeroThreshold(t *testing.T) {
	k := buildKnowledge(t, dataset.Tables{
		Symptoms: []string{"fever", "cough", "rash"},
		Profiles: []dataset.ProfileRow{
			{Disease: "Flu", Symptoms: []string{"fever", "cough"}},
		},
	})
	e := newEngine(t, k, Options{Threshold: 0, DefaultWeight: 1})

	result := e.Match(model.NewSymptomSet("rash"))
	if !result.IsUnknown() || result.Confidence != 0 {
		t.Errorf("expected unknown with confidence 0, got %s / %v", result.Disease, result.Confidence)
	}
}

func TestMatch_AtThresholdIsDiagnosis(t *testing.T) {
	k := buildKnowledge(t, dataset.Tables{
		Symptoms: []string{"a", "b"},
		Profiles: []dataset.ProfileRow{{Disease: "Pair", Symptoms: []string{"a", "b"}}},
	})
	e := newEngine(t, k, Options{Threshold: 0.5, DefaultWeight: 1})

	result := e.Match(model.NewSymptomSet("a"))
	if result.Disease != "Pair" || result.Confidence != 0.5 {
		t.Errorf("expected Pair at confidence 0.5, got %s / %v", result.Disease, result.Confidence)
	}
	if len(result.Missing) != 1 || result.Missing[0] != "b" {
		t.Errorf("expected missing [b], got %v", result.Missing)
	}
}

func TestMatch_TieBreakByName(t *testing.T) {
	k := buildKnowledge(t, dataset.Tables{
		Symptoms: []string{"a", "b", "c"},
		Profiles: []dataset.ProfileRow{
			{Disease: "Beta", Symptoms: []string{"a", "b"}},
			{Disease: "Alpha", Symptoms: []string{"a", "c"}},
		},
	})
	e := newEngine(t, k, Options{Threshold: 0.4, DefaultWeight: 1})

	for i := 0; i < 20; i++ {
		result := e.Match(model.NewSymptomSet("a"))
		if result.Disease != "Alpha" {
			t.Fatalf("run %d: expected Alpha on a full tie, got %s", i, result.Disease)
		}
	}
}

func TestMatch_TieBreakByMissingCount(t *testing.T) {
	k := buildKnowledge(t, dataset.Tables{
		Symptoms: []string{"a", "b", "c", "d"},
		Profiles: []dataset.ProfileRow{
			{Disease: "Alpha", Symptoms: []string{"a", "c", "d"}},
			{Disease: "Zeta", Symptoms: []string{"a", "b"}},
		},
		Severity: []dataset.SeverityRow{
			{Symptom: "a", Weight: 2},
			{Symptom: "b", Weight: 2},
			{Symptom: "c", Weight: 1},
			{Symptom: "d", Weight: 1},
		},
	})
	e := newEngine(t, k, Options{Threshold: 0.4, DefaultWeight: 1})

	// Both score 0.5; Zeta has one missing symptom, Alpha two
	result := e.Match(model.NewSymptomSet("a"))
	if result.Disease != "Zeta" {
		t.Errorf("expected Zeta (fewer missing), got %s", result.Disease)
	}
}

func TestMatch_TieBreakWithFractionalWeights(t *testing.T) {
	k := buildKnowledge(t, dataset.Tables{
		Symptoms: []string{"a", "b", "c", "d", "e"},
		Profiles: []dataset.ProfileRow{
			{Disease: "Alpha", Symptoms: []string{"a", "b", "c"}},
			{Disease: "Zeta", Symptoms: []string{"d", "e"}},
		},
		Severity: []dataset.SeverityRow{
			{Symptom: "a", Weight: 0.3},
			{Symptom: "b", Weight: 0.3},
			{Symptom: "c", Weight: 0.3},
			{Symptom: "d", Weight: 0.1},
			{Symptom: "e", Weight: 0.2},
		},
	})
	e := newEngine(t, k, Options{Threshold: 0.3, DefaultWeight: 1})

	// Both are 1/3 but differ in the last bit; Zeta has fewer missing symptoms
	user := model.NewSymptomSet("a", "d")
	result := e.Match(user)
	if result.Disease != "Zeta" {
		t.Errorf("expected Zeta (fewer missing), got %s", result.Disease)
	}

	ranked := e.Rank(user, 0)
	if len(ranked) != 2 || ranked[0].Disease != "Zeta" || ranked[1].Disease != "Alpha" {
		t.Errorf("unexpected ranking: %+v", ranked)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(model.EngineConfig{ConfidenceThreshold: 0.6, MaxMissing: 3})
	if opts.Threshold != 0.6 || opts.MaxMissing != 3 {
		t.Errorf("unexpected options: %+v", opts)
	}
	if opts.DefaultWeight != model.DefaultSeverityWeight {
		t.Errorf("expected unset weight to default to %v, got %v", model.DefaultSeverityWeight, opts.DefaultWeight)
	}

	opts = OptionsFromConfig(model.EngineConfig{DefaultSeverityWeight: 2})
	if opts.DefaultWeight != 2 || opts.Threshold != 0 {
		t.Errorf("unexpected options: %+v", opts)
	}
}

func TestMatch_DefaultWeightForMissingSeverity(t *testing.T) {
	tables := dataset.Tables{
		Symptoms: []string{"fever", "cough"},
		Profiles: []dataset.ProfileRow{{Disease: "Flu", Symptoms: []string{"fever", "cough"}}},
		Severity: []dataset.SeverityRow{{Symptom: "fever", Weight: 3}},
	}
	k := buildKnowledge(t, tables)

	tests := []struct {
		defaultWeight float64
		expected      float64
	}{
		{defaultWeight: 1, expected: 1.0 / 4.0},
		{defaultWeight: 3, expected: 3.0 / 6.0},
	}

	for _, tt := range tests {
		e := newEngine(t, k, Options{Threshold: 0, DefaultWeight: tt.defaultWeight})
		flu, _ := k.Profiles.Get("Flu")
		c := e.Score(model.NewSymptomSet("cough"), flu)
		if !approx(c.Score, tt.expected) {
			t.Errorf("default weight %v: expected %v, got %v", tt.defaultWeight, tt.expected, c.Score)
		}
	}
}

func TestMatch_FallbackDescriptionAndPrecautions(t *testing.T) {
	k := buildKnowledge(t, dataset.Tables{
		Symptoms: []string{"a"},
		Profiles: []dataset.ProfileRow{{Disease: "Bare", Symptoms: []string{"a"}}},
	})
	e := newEngine(t, k, DefaultOptions())

	result := e.Match(model.NewSymptomSet("a"))
	if result.Description != MissingDescription {
		t.Errorf("expected fallback description, got %q", result.Description)
	}
	if len(result.Precautions) != len(DefaultPrecautions) {
		t.Errorf("expected default precautions, got %v", result.Precautions)
	}

	// Results must not alias the shared fallback list
	result.Precautions[0] = "changed"
	if DefaultPrecautions[0] == "changed" {
		t.Error("result precautions alias the package default")
	}
}

func TestMatch_MaxMissing(t *testing.T) {
	k := buildKnowledge(t, dataset.Tables{
		Symptoms: []string{"a", "b", "c", "d", "e"},
		Profiles: []dataset.ProfileRow{{Disease: "Wide", Symptoms: []string{"a", "b", "c", "d", "e"}}},
	})
	e := newEngine(t, k, Options{Threshold: 0.2, DefaultWeight: 1, MaxMissing: 2})

	result := e.Match(model.NewSymptomSet("a"))
	if len(result.Missing) != 2 || result.Missing[0] != "b" || result.Missing[1] != "c" {
		t.Errorf("expected missing capped to [b c], got %v", result.Missing)
	}
}

func TestRank(t *testing.T) {
	e := fluCold(t)

	ranked := e.Rank(model.NewSymptomSet("cough"), 0)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(ranked))
	}
	// Cold: 2/3, Flu: 2/5
	if ranked[0].Disease != "Cold" || !approx(ranked[0].Score, 2.0/3.0) {
		t.Errorf("expected Cold first at 2/3, got %+v", ranked[0])
	}
	if ranked[1].Disease != "Flu" || !approx(ranked[1].Score, 2.0/5.0) {
		t.Errorf("expected Flu second at 2/5, got %+v", ranked[1])
	}
	if ranked[0].Overlap != 2 || ranked[0].Total != 3 {
		t.Errorf("expected overlap 2 of 3, got %v of %v", ranked[0].Overlap, ranked[0].Total)
	}

	top := e.Rank(model.NewSymptomSet("cough"), 1)
	if len(top) != 1 || top[0].Disease != "Cold" {
		t.Errorf("expected only Cold, got %+v", top)
	}
}

func TestScore_Extra(t *testing.T) {
	e := fluCold(t)
	flu, _ := e.Knowledge().Profiles.Get("Flu")

	c := e.Score(model.NewSymptomSet("fever", "headache"), flu)
	if len(c.Extra) != 1 || c.Extra[0] != "headache" {
		t.Errorf("expected extra [headache], got %v", c.Extra)
	}
	if !approx(c.Score, 3.0/5.0) {
		t.Errorf("expected 3/5, got %v", c.Score)
	}
}

func TestNew_ConfigurationErrors(t *testing.T) {
	k := fluCold(t).Knowledge()

	if _, err := New(nil, DefaultOptions(), nil); !errors.Is(err, dataset.ErrEmptyStore) {
		t.Errorf("expected ErrEmptyStore for nil knowledge, got %v", err)
	}
	if _, err := New(&dataset.Knowledge{Profiles: &dataset.ProfileStore{}}, DefaultOptions(), nil); !errors.Is(err, dataset.ErrEmptyStore) {
		t.Errorf("expected ErrEmptyStore for empty store, got %v", err)
	}

	bad := []Options{
		{Threshold: -0.1, DefaultWeight: 1},
		{Threshold: 1.1, DefaultWeight: 1},
		{Threshold: math.NaN(), DefaultWeight: 1},
		{Threshold: 0.4, DefaultWeight: 0},
		{Threshold: 0.4, DefaultWeight: -1},
		{Threshold: 0.4, DefaultWeight: 1, MaxMissing: -1},
	}
	for _, opts := range bad {
		if _, err := New(k, opts, nil); !errors.Is(err, ErrInvalidOption) {
			t.Errorf("expected ErrInvalidOption for %+v, got %v", opts, err)
		}
	}
}

func TestSeverityLevel(t *testing.T) {
	k := buildKnowledge(t, dataset.Tables{
		Symptoms: []string{"mild", "medium", "severe", "unrated"},
		Profiles: []dataset.ProfileRow{{Disease: "X", Symptoms: []string{"mild"}}},
		Severity: []dataset.SeverityRow{
			{Symptom: "mild", Weight: 1},
			{Symptom: "medium", Weight: 4},
			{Symptom: "severe", Weight: 7},
		},
	})
	e := newEngine(t, k, DefaultOptions())

	tests := []struct {
		symptoms []model.Symptom
		expected model.SeverityLevel
	}{
		{symptoms: nil, expected: model.SeverityUnknown},
		{symptoms: []model.Symptom{"unrated"}, expected: model.SeverityUnknown},
		{symptoms: []model.Symptom{"mild"}, expected: model.SeverityLow},
		{symptoms: []model.Symptom{"mild", "medium"}, expected: model.SeverityModerate},
		{symptoms: []model.Symptom{"mild", "severe"}, expected: model.SeverityHigh},
	}

	for _, tt := range tests {
		if got := e.SeverityLevel(tt.symptoms); got != tt.expected {
			t.Errorf("SeverityLevel(%v) = %s, expected %s", tt.symptoms, got, tt.expected)
		}
	}
}
