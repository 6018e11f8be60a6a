package model

import (
	"sort"
	"strings"
)

// Symptom is a canonical symptom identifier (lowercase, punctuation-free,
// single-spaced). Raw user input only becomes a Symptom through the vocabulary.
type Symptom string

// SymptomSet is a set of canonical symptoms
type SymptomSet map[Symptom]struct{}

// NewSymptomSet builds a set from the given symptoms (duplicates collapse)
func NewSymptomSet(symptoms ...Symptom) SymptomSet {
	set := make(SymptomSet, len(symptoms))
	for _, s := range symptoms {
		set.Add(s)
	}
	return set
}

// Add inserts a symptom into the set
func (s SymptomSet) Add(symptom Symptom) {
	s[symptom] = struct{}{}
}

// Has reports whether the symptom is in the set
func (s SymptomSet) Has(symptom Symptom) bool {
	_, ok := s[symptom]
	return ok
}

// Len returns the number of symptoms in the set
func (s SymptomSet) Len() int {
	return len(s)
}

// Sorted returns the members in lexicographic order
func (s SymptomSet) Sorted() []Symptom {
	out := make([]Symptom, 0, len(s))
	for symptom := range s {
		out = append(out, symptom)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Key returns an order-independent string form of the set, usable as a map or cache key
func (s SymptomSet) Key() string {
	sorted := s.Sorted()
	parts := make([]string, len(sorted))
	for i, symptom := range sorted {
		parts[i] = string(symptom)
	}
	return strings.Join(parts, "|")
}

// Equal reports set equality
func (s SymptomSet) Equal(other SymptomSet) bool {
	if len(s) != len(other) {
		return false
	}
	for symptom := range s {
		if !other.Has(symptom) {
			return false
		}
	}
	return true
}

// DiseaseProfile is the immutable reference record for one condition
type DiseaseProfile struct {
	Name        string     `json:"name"`
	Symptoms    SymptomSet `json:"-"`
	Description string     `json:"description,omitempty"`
	Precautions []string   `json:"precautions,omitempty"`
}

// SeverityEntry assigns a positive weight to a canonical symptom
type SeverityEntry struct {
	Symptom Symptom `json:"symptom"`
	Weight  float64 `json:"weight"`
}
