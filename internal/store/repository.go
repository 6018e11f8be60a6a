package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/ppiankov/medimatch/internal/dataset"
	"gorm.io/gorm"
)

const insertBatchSize = 200

// Repository reads and replaces the reference tables
type Repository struct {
	database *gorm.DB
}

func NewRepository(database *gorm.DB) *Repository {
	return &Repository{database: database}
}

// Replace overwrites every reference table with t in one transaction
func (repo *Repository) Replace(ctx context.Context, t dataset.Tables) error {
	return repo.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range allModels() {
			if err := tx.Where("1 = 1").Delete(m).Error; err != nil {
				return fmt.Errorf("clear %T: %w", m, err)
			}
		}

		symptoms := make([]Symptom, 0, len(t.Symptoms))
		seen := make(map[string]bool)
		for _, name := range t.Symptoms {
			if !seen[name] {
				seen[name] = true
				symptoms = append(symptoms, Symptom{Name: name})
			}
		}
		if err := createBatch(tx, symptoms); err != nil {
			return fmt.Errorf("insert symptoms: %w", err)
		}

		descriptions := dataset.FoldKeys(t.Descriptions)
		precautions := dataset.FoldKeys(t.Precautions)
		for _, row := range t.Profiles {
			key := dataset.DiseaseKey(row.Disease)
			disease := Disease{
				Name:        row.Disease,
				Description: descriptions[key],
			}
			for _, s := range row.Symptoms {
				disease.Symptoms = append(disease.Symptoms, DiseaseSymptom{Symptom: s})
			}
			for i, p := range precautions[key] {
				disease.Precautions = append(disease.Precautions, Precaution{Position: i, Text: p})
			}
			if err := tx.Create(&disease).Error; err != nil {
				return fmt.Errorf("insert disease %q: %w", row.Disease, err)
			}
		}

		weights := make([]SeverityWeight, 0, len(t.Severity))
		for _, row := range t.Severity {
			weights = append(weights, SeverityWeight{Symptom: row.Symptom, Weight: row.Weight})
		}
		if err := createBatch(tx, weights); err != nil {
			return fmt.Errorf("insert severity: %w", err)
		}

		canonicals := make([]string, 0, len(t.Synonyms))
		for canonical := range t.Synonyms {
			canonicals = append(canonicals, canonical)
		}
		sort.Strings(canonicals)

		var aliases []SymptomAlias
		for _, canonical := range canonicals {
			for _, alias := range t.Synonyms[canonical] {
				aliases = append(aliases, SymptomAlias{Alias: alias, Canonical: canonical})
			}
		}
		if err := createBatch(tx, aliases); err != nil {
			return fmt.Errorf("insert aliases: %w", err)
		}

		return nil
	})
}

func createBatch[T any](tx *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(&rows, insertBatchSize).Error
}

// Load reads the reference tables back in loader form
func (repo *Repository) Load(ctx context.Context) (dataset.Tables, error) {
	db := repo.database.WithContext(ctx)
	t := dataset.Tables{
		Descriptions: make(map[string]string),
		Precautions:  make(map[string][]string),
		Synonyms:     make(map[string][]string),
	}

	var symptoms []Symptom
	if err := db.Order("name").Find(&symptoms).Error; err != nil {
		return dataset.Tables{}, fmt.Errorf("load symptoms: %w", err)
	}
	for _, s := range symptoms {
		t.Symptoms = append(t.Symptoms, s.Name)
	}

	var diseases []Disease
	err := db.
		Preload("Symptoms", func(q *gorm.DB) *gorm.DB { return q.Order("id") }).
		Preload("Precautions", func(q *gorm.DB) *gorm.DB { return q.Order("position") }).
		Order("name").
		Find(&diseases).Error
	if err != nil {
		return dataset.Tables{}, fmt.Errorf("load diseases: %w", err)
	}
	for _, d := range diseases {
		row := dataset.ProfileRow{Disease: d.Name}
		for _, s := range d.Symptoms {
			row.Symptoms = append(row.Symptoms, s.Symptom)
		}
		t.Profiles = append(t.Profiles, row)
		if d.Description != "" {
			t.Descriptions[d.Name] = d.Description
		}
		for _, p := range d.Precautions {
			t.Precautions[d.Name] = append(t.Precautions[d.Name], p.Text)
		}
	}

	var weights []SeverityWeight
	if err := db.Order("id").Find(&weights).Error; err != nil {
		return dataset.Tables{}, fmt.Errorf("load severity: %w", err)
	}
	for _, w := range weights {
		t.Severity = append(t.Severity, dataset.SeverityRow{Symptom: w.Symptom, Weight: w.Weight})
	}

	var aliases []SymptomAlias
	if err := db.Order("id").Find(&aliases).Error; err != nil {
		return dataset.Tables{}, fmt.Errorf("load aliases: %w", err)
	}
	for _, a := range aliases {
		t.Synonyms[a.Canonical] = append(t.Synonyms[a.Canonical], a.Alias)
	}

	return t, nil
}

// Count returns the number of stored diseases
func (repo *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := repo.database.WithContext(ctx).Model(&Disease{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
