package dataset

import (
	"errors"
	"testing"

	"github.com/ppiankov/medimatch/internal/model"
	"github.com/ppiankov/medimatch/internal/vocab"
)

func fluColdTables() Tables {
	return Tables{
		Symptoms: []string{"fever", "cough", "headache"},
		Profiles: []ProfileRow{
			{Disease: "Flu", Symptoms: []string{"fever", "cough"}},
			{Disease: "Cold", Symptoms: []string{"cough", "headache"}},
		},
		Severity: []SeverityRow{
			{Symptom: "fever", Weight: 3},
			{Symptom: "cough", Weight: 2},
			{Symptom: "headache", Weight: 1},
		},
		Descriptions: map[string]string{"flu": "Influenza."},
		Precautions:  map[string][]string{"Flu": {"rest", " ", "fluids"}},
		Synonyms:     map[string][]string{"fever": {"pyrexia"}},
	}
}

func TestBuild_Valid(t *testing.T) {
	k, err := Build(fluColdTables(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if k.Profiles.Len() != 2 {
		t.Fatalf("expected 2 profiles, got %d", k.Profiles.Len())
	}

	names := k.Profiles.Names()
	if names[0] != "Cold" || names[1] != "Flu" {
		t.Errorf("expected profiles sorted by name, got %v", names)
	}

	flu, ok := k.Profiles.Get("FLU")
	if !ok {
		t.Fatal("expected case-insensitive lookup to find Flu")
	}
	if flu.Description != "Influenza." {
		t.Errorf("expected description attached case-insensitively, got %q", flu.Description)
	}
	if len(flu.Precautions) != 2 || flu.Precautions[0] != "rest" || flu.Precautions[1] != "fluids" {
		t.Errorf("expected blank precautions dropped and order kept, got %v", flu.Precautions)
	}
	if !flu.Symptoms.Equal(model.NewSymptomSet("fever", "cough")) {
		t.Errorf("unexpected Flu symptoms: %v", flu.Symptoms.Sorted())
	}

	if w := k.Severity.Weight("fever", 1); w != 3 {
		t.Errorf("expected fever weight 3, got %v", w)
	}

	stats := k.Stats()
	if stats.Diseases != 2 || stats.Symptoms != 3 || stats.Aliases != 1 ||
		stats.SeverityEntries != 3 || stats.Descriptions != 1 || stats.Precautions != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestBuild_ProfileSymptomsResolveAliases(t *testing.T) {
	tables := fluColdTables()
	tables.Profiles[0].Symptoms = []string{"Pyrexia", "COUGH"}

	k, err := Build(tables, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	flu, _ := k.Profiles.Get("Flu")
	if !flu.Symptoms.Has("fever") || !flu.Symptoms.Has("cough") {
		t.Errorf("expected alias and case to resolve, got %v", flu.Symptoms.Sorted())
	}
}

func TestBuild_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		desc     string
		mutate   func(*Tables)
		expected error
	}{
		{
			desc:     "empty store",
			mutate:   func(t *Tables) { t.Profiles = nil },
			expected: ErrEmptyStore,
		},
		{
			desc: "duplicate disease",
			mutate: func(t *Tables) {
				t.Profiles = append(t.Profiles, ProfileRow{Disease: "flu", Symptoms: []string{"fever"}})
			},
			expected: ErrDuplicateDisease,
		},
		{
			desc: "unknown profile symptom",
			mutate: func(t *Tables) {
				t.Profiles[0].Symptoms = append(t.Profiles[0].Symptoms, "sneezing")
			},
			expected: ErrUnknownSymptom,
		},
		{
			desc:     "empty profile",
			mutate:   func(t *Tables) { t.Profiles[1].Symptoms = nil },
			expected: ErrEmptyProfile,
		},
		{
			desc:     "empty disease name",
			mutate:   func(t *Tables) { t.Profiles[1].Disease = "  " },
			expected: ErrEmptyDiseaseName,
		},
		{
			desc: "unknown severity symptom",
			mutate: func(t *Tables) {
				t.Severity = append(t.Severity, SeverityRow{Symptom: "sneezing", Weight: 2})
			},
			expected: ErrUnknownSymptom,
		},
		{
			desc:     "zero weight",
			mutate:   func(t *Tables) { t.Severity[0].Weight = 0 },
			expected: ErrInvalidWeight,
		},
		{
			desc:     "negative weight",
			mutate:   func(t *Tables) { t.Severity[0].Weight = -2 },
			expected: ErrInvalidWeight,
		},
		{
			desc:     "alias conflict",
			mutate:   func(t *Tables) { t.Synonyms["cough"] = []string{"pyrexia"} },
			expected: vocab.ErrAliasConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			tables := fluColdTables()
			tt.mutate(&tables)

			_, err := Build(tables, nil)
			if !errors.Is(err, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestSeverityTable_Fallback(t *testing.T) {
	table := NewSeverityTable(model.SeverityEntry{Symptom: "fever", Weight: 3})

	if w := table.Weight("fever", 1); w != 3 {
		t.Errorf("expected 3, got %v", w)
	}
	if w := table.Weight("cough", 1.5); w != 1.5 {
		t.Errorf("expected fallback 1.5, got %v", w)
	}
	if _, ok := table.Lookup("cough"); ok {
		t.Error("expected no entry for cough")
	}

	entries := table.Entries()
	if len(entries) != 1 || entries[0].Symptom != "fever" {
		t.Errorf("unexpected entries: %v", entries)
	}
}
