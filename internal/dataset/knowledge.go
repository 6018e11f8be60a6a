// Package dataset loads, validates and freezes the reference tables the
// matching engine reads: vocabulary, severity weights and disease profiles.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ppiankov/medimatch/internal/logging"
	"github.com/ppiankov/medimatch/internal/model"
	"github.com/ppiankov/medimatch/internal/vocab"
	"github.com/sirupsen/logrus"
)

// Configuration errors. All of them are fatal at startup.
var (
	ErrEmptyStore       = errors.New("disease profile store is empty")
	ErrEmptyProfile     = errors.New("disease profile has no symptoms")
	ErrEmptyDiseaseName = errors.New("disease name is empty")
	ErrDuplicateDisease = errors.New("duplicate disease name")
	ErrUnknownSymptom   = errors.New("symptom is not in the vocabulary")
	ErrInvalidWeight    = errors.New("severity weight must be a positive number")
)

// Tables is the raw, unvalidated output of a loader
type Tables struct {
	Symptoms     []string            // declared canonical vocabulary
	Profiles     []ProfileRow        // disease -> symptom names
	Severity     []SeverityRow       // symptom -> weight
	Descriptions map[string]string   // disease -> description
	Precautions  map[string][]string // disease -> ordered precautions
	Synonyms     map[string][]string // canonical symptom -> aliases
}

// ProfileRow is one disease row of the incidence table
type ProfileRow struct {
	Disease  string
	Symptoms []string
}

// SeverityRow is one row of the severity table
type SeverityRow struct {
	Symptom string
	Weight  float64
}

// Knowledge is the immutable, validated snapshot shared by every query
type Knowledge struct {
	Vocabulary *vocab.Vocabulary
	Severity   *SeverityTable
	Profiles   *ProfileStore
}

// Stats summarizes what a Knowledge snapshot holds
type Stats struct {
	Diseases        int `json:"diseases" yaml:"diseases"`
	Symptoms        int `json:"symptoms" yaml:"symptoms"`
	Aliases         int `json:"aliases" yaml:"aliases"`
	SeverityEntries int `json:"severity_entries" yaml:"severity_entries"`
	Descriptions    int `json:"descriptions" yaml:"descriptions"`
	Precautions     int `json:"precautions" yaml:"precautions"`
}

// Stats reports table sizes, mirroring a load health check
func (k *Knowledge) Stats() Stats {
	symptoms, aliases := k.Vocabulary.Size()
	stats := Stats{
		Diseases:        k.Profiles.Len(),
		Symptoms:        symptoms,
		Aliases:         aliases,
		SeverityEntries: k.Severity.Len(),
	}
	for _, p := range k.Profiles.All() {
		if p.Description != "" {
			stats.Descriptions++
		}
		if len(p.Precautions) > 0 {
			stats.Precautions++
		}
	}
	return stats
}

// Build validates raw tables into a Knowledge snapshot
func Build(t Tables, logger logrus.FieldLogger) (*Knowledge, error) {
	logger = logging.OrDiscard(logger)

	v, err := vocab.NewVocabulary(t.Symptoms, t.Synonyms)
	if err != nil {
		return nil, fmt.Errorf("build vocabulary: %w", err)
	}

	severity, err := buildSeverity(v, t.Severity, logger)
	if err != nil {
		return nil, err
	}

	profiles, err := buildProfiles(v, t, logger)
	if err != nil {
		return nil, err
	}

	k := &Knowledge{
		Vocabulary: v,
		Severity:   severity,
		Profiles:   profiles,
	}

	stats := k.Stats()
	logger.WithFields(logrus.Fields{
		"diseases":     stats.Diseases,
		"symptoms":     stats.Symptoms,
		"aliases":      stats.Aliases,
		"severity":     stats.SeverityEntries,
		"descriptions": stats.Descriptions,
		"precautions":  stats.Precautions,
	}).Info("Reference tables loaded")

	return k, nil
}

func buildSeverity(v *vocab.Vocabulary, rows []SeverityRow, logger logrus.FieldLogger) (*SeverityTable, error) {
	weights := make(map[model.Symptom]float64, len(rows))
	var order []model.Symptom
	for _, row := range rows {
		symptom, ok := v.Lookup(row.Symptom)
		if !ok {
			return nil, fmt.Errorf("severity entry %q: %w", row.Symptom, ErrUnknownSymptom)
		}
		if math.IsNaN(row.Weight) || math.IsInf(row.Weight, 0) || row.Weight <= 0 {
			return nil, fmt.Errorf("severity entry %q weight %v: %w", row.Symptom, row.Weight, ErrInvalidWeight)
		}
		if prev, dup := weights[symptom]; dup && prev != row.Weight {
			logger.WithFields(logrus.Fields{
				"symptom":  symptom,
				"previous": prev,
				"weight":   row.Weight,
			}).Warn("Duplicate severity entry, keeping the last one")
		}
		if _, dup := weights[symptom]; !dup {
			order = append(order, symptom)
		}
		weights[symptom] = row.Weight
	}

	entries := make([]model.SeverityEntry, 0, len(order))
	for _, s := range order {
		entries = append(entries, model.SeverityEntry{Symptom: s, Weight: weights[s]})
	}
	return NewSeverityTable(entries...), nil
}

func buildProfiles(v *vocab.Vocabulary, t Tables, logger logrus.FieldLogger) (*ProfileStore, error) {
	if len(t.Profiles) == 0 {
		return nil, ErrEmptyStore
	}

	descriptions := FoldKeys(t.Descriptions)
	precautions := FoldKeys(t.Precautions)

	store := &ProfileStore{
		byName: make(map[string]int, len(t.Profiles)),
	}

	for _, row := range t.Profiles {
		name := strings.TrimSpace(row.Disease)
		if name == "" {
			return nil, ErrEmptyDiseaseName
		}
		key := strings.ToLower(name)
		if _, dup := store.byName[key]; dup {
			return nil, fmt.Errorf("%q: %w", name, ErrDuplicateDisease)
		}

		symptoms := model.NewSymptomSet()
		for _, raw := range row.Symptoms {
			symptom, ok := v.Lookup(raw)
			if !ok {
				return nil, fmt.Errorf("disease %q symptom %q: %w", name, raw, ErrUnknownSymptom)
			}
			symptoms.Add(symptom)
		}
		if symptoms.Len() == 0 {
			return nil, fmt.Errorf("%q: %w", name, ErrEmptyProfile)
		}

		store.byName[key] = len(store.profiles)
		store.profiles = append(store.profiles, model.DiseaseProfile{
			Name:        name,
			Symptoms:    symptoms,
			Description: strings.TrimSpace(descriptions[key]),
			Precautions: cleanList(precautions[key]),
		})
	}

	used := model.NewSymptomSet()
	for _, p := range store.profiles {
		for _, s := range p.Symptoms.Sorted() {
			used.Add(s)
		}
	}
	var unused []model.Symptom
	for _, s := range v.Symptoms() {
		if !used.Has(s) {
			unused = append(unused, s)
		}
	}
	if len(unused) > 0 {
		logger.WithFields(logrus.Fields{
			"count":    len(unused),
			"symptoms": unused,
		}).Debug("Vocabulary symptoms not used by any profile")
	}

	for key := range descriptions {
		if _, ok := store.byName[key]; !ok {
			logger.WithField("disease", key).Warn("Description for unknown disease ignored")
		}
	}
	for key := range precautions {
		if _, ok := store.byName[key]; !ok {
			logger.WithField("disease", key).Warn("Precautions for unknown disease ignored")
		}
	}

	sort.Slice(store.profiles, func(i, j int) bool {
		return store.profiles[i].Name < store.profiles[j].Name
	})
	for i, p := range store.profiles {
		store.byName[strings.ToLower(p.Name)] = i
	}

	return store, nil
}

// FoldKeys re-keys a disease-indexed table by DiseaseKey
func FoldKeys[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[DiseaseKey(k)] = v
	}
	return out
}

// DiseaseKey is the case-insensitive form disease names are matched by
func DiseaseKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func cleanList(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
