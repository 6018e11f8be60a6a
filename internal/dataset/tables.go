package dataset

import (
	"strings"

	"github.com/ppiankov/medimatch/internal/model"
)

// SeverityTable maps canonical symptoms to severity weights
type SeverityTable struct {
	weights map[model.Symptom]float64
}

// NewSeverityTable builds a table from already-validated entries
func NewSeverityTable(entries ...model.SeverityEntry) *SeverityTable {
	weights := make(map[model.Symptom]float64, len(entries))
	for _, e := range entries {
		weights[e.Symptom] = e.Weight
	}
	return &SeverityTable{weights: weights}
}

// Lookup returns the configured weight, if any
func (t *SeverityTable) Lookup(symptom model.Symptom) (float64, bool) {
	w, ok := t.weights[symptom]
	return w, ok
}

// Weight returns the configured weight or fallback when the symptom has no entry
func (t *SeverityTable) Weight(symptom model.Symptom, fallback float64) float64 {
	if w, ok := t.weights[symptom]; ok {
		return w
	}
	return fallback
}

// Len returns the number of entries
func (t *SeverityTable) Len() int {
	return len(t.weights)
}

// Entries returns all entries sorted by symptom
func (t *SeverityTable) Entries() []model.SeverityEntry {
	set := model.NewSymptomSet()
	for s := range t.weights {
		set.Add(s)
	}
	out := make([]model.SeverityEntry, 0, len(t.weights))
	for _, s := range set.Sorted() {
		out = append(out, model.SeverityEntry{Symptom: s, Weight: t.weights[s]})
	}
	return out
}

// ProfileStore holds disease profiles sorted by name
type ProfileStore struct {
	profiles []model.DiseaseProfile
	byName   map[string]int // lowercased name -> index
}

// Len returns the number of profiles
func (s *ProfileStore) Len() int {
	return len(s.profiles)
}

// All returns the profiles in name order. Callers must not mutate them.
func (s *ProfileStore) All() []model.DiseaseProfile {
	return s.profiles
}

// Names returns the disease names in order
func (s *ProfileStore) Names() []string {
	names := make([]string, len(s.profiles))
	for i, p := range s.profiles {
		names[i] = p.Name
	}
	return names
}

// Get finds a profile by name, case-insensitively
func (s *ProfileStore) Get(name string) (model.DiseaseProfile, bool) {
	i, ok := s.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return model.DiseaseProfile{}, false
	}
	return s.profiles[i], true
}
