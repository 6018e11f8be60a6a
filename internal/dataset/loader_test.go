package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestLoadFS_CSVTables(t *testing.T) {
	fsys := fstest.MapFS{
		"training.csv": {Data: []byte(
			"fever,cough,headache,prognosis\n" +
				"1,1,0,Flu\n" +
				"1,0,0,Flu\n" +
				"0,1,1,Cold\n")},
		"severity.csv": {Data: []byte("symptom,weight\nfever,3\ncough,2\n")},
		"description.csv": {Data: []byte(
			"disease,description\n" +
				"Flu,\"Influenza, a viral infection.\"\n")},
		"precaution.csv": {Data: []byte(
			"disease,p1,p2,p3\n" +
				"Flu,rest,,fluids\n")},
		"synonyms.yaml": {Data: []byte("fever:\n  - pyrexia\n  - high temperature\n")},
	}

	tables, err := LoadFS(fsys, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tables.Symptoms) != 3 {
		t.Errorf("expected 3 declared symptoms, got %v", tables.Symptoms)
	}
	if len(tables.Profiles) != 2 {
		t.Fatalf("expected repeated Flu rows merged into 2 profiles, got %d", len(tables.Profiles))
	}
	if tables.Profiles[0].Disease != "Flu" || len(tables.Profiles[0].Symptoms) != 2 {
		t.Errorf("unexpected Flu row: %+v", tables.Profiles[0])
	}
	if len(tables.Severity) != 2 || tables.Severity[0].Weight != 3 {
		t.Errorf("unexpected severity rows: %+v", tables.Severity)
	}
	if tables.Descriptions["Flu"] != "Influenza, a viral infection." {
		t.Errorf("unexpected description: %q", tables.Descriptions["Flu"])
	}
	if p := tables.Precautions["Flu"]; len(p) != 2 || p[1] != "fluids" {
		t.Errorf("unexpected precautions: %v", p)
	}
	if len(tables.Synonyms["fever"]) != 2 {
		t.Errorf("unexpected synonyms: %v", tables.Synonyms)
	}

	if _, err := Build(tables, nil); err != nil {
		t.Errorf("expected loaded tables to validate: %v", err)
	}
}

func TestLoadFS_OnlyTrainingRequired(t *testing.T) {
	fsys := fstest.MapFS{
		"clean_training.csv": {Data: []byte("prognosis,fever\nFlu,1\n")},
	}

	tables, err := LoadFS(fsys, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tables.Profiles) != 1 || tables.Severity != nil || tables.Synonyms != nil {
		t.Errorf("unexpected tables: %+v", tables)
	}
}

func TestLoadFS_MissingTraining(t *testing.T) {
	_, err := LoadFS(fstest.MapFS{"severity.csv": {Data: []byte("fever,1\n")}}, nil)
	if !errors.Is(err, ErrMissingTable) {
		t.Errorf("expected ErrMissingTable, got %v", err)
	}
}

func TestLoadFS_BadSeverityWeight(t *testing.T) {
	fsys := fstest.MapFS{
		"training.csv": {Data: []byte("prognosis,fever\nFlu,1\n")},
		"severity.csv": {Data: []byte("symptom,weight\nfever,hot\n")},
	}

	_, err := LoadFS(fsys, nil)
	if !errors.Is(err, ErrInvalidWeight) {
		t.Errorf("expected ErrInvalidWeight, got %v", err)
	}
}

func TestLoadFS_BadSynonyms(t *testing.T) {
	fsys := fstest.MapFS{
		"training.csv":  {Data: []byte("prognosis,fever\nFlu,1\n")},
		"synonyms.json": {Data: []byte(`["fever"]`)},
	}

	if _, err := LoadFS(fsys, nil); err == nil {
		t.Error("expected error for synonyms that are not an object")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "training.csv"), []byte("prognosis,cough\nCold,1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tables, err := LoadDir(dir, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tables.Profiles) != 1 || tables.Profiles[0].Disease != "Cold" {
		t.Errorf("unexpected profiles: %+v", tables.Profiles)
	}

	if _, err := LoadDir(filepath.Join(dir, "training.csv"), nil); err == nil {
		t.Error("expected error when path is a file")
	}
	if _, err := LoadDir(filepath.Join(dir, "missing"), nil); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestLoadSample(t *testing.T) {
	k, err := LoadSample(nil)
	if err != nil {
		t.Fatalf("embedded sample failed to load: %v", err)
	}

	stats := k.Stats()
	if stats.Diseases != 12 {
		t.Errorf("expected 12 sample diseases, got %d", stats.Diseases)
	}
	if stats.Aliases == 0 || stats.SeverityEntries == 0 {
		t.Errorf("expected aliases and severity entries, got %+v", stats)
	}

	dengue, ok := k.Profiles.Get("dengue")
	if !ok {
		t.Fatal("expected Dengue in sample")
	}
	if !dengue.Symptoms.Has("skin rash") {
		t.Error("expected merged Dengue rows to keep skin rash")
	}

	if _, ok := k.Severity.Lookup("loss of smell"); ok {
		t.Error("expected loss of smell to rely on the default weight")
	}
}
