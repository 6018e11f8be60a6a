package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/ppiankov/medimatch/internal/logging"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrMissingTable is returned when the required incidence table is absent
var ErrMissingTable = errors.New("required table not found")

// File names tried for each table, in order
var (
	trainingFiles    = []string{"training.csv", "clean_training.csv"}
	severityFiles    = []string{"severity.csv", "symptom_severity.csv"}
	descriptionFiles = []string{"description.csv", "symptom_description.csv"}
	precautionFiles  = []string{"precaution.csv", "symptom_precaution.csv"}
	synonymFiles     = []string{"synonyms.json", "synonyms.yaml", "synonyms.yml"}
)

// LoadDir reads a CSV dataset directory
func LoadDir(dir string, logger logrus.FieldLogger) (Tables, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return Tables{}, fmt.Errorf("open dataset dir: %w", err)
	}
	if !info.IsDir() {
		return Tables{}, fmt.Errorf("dataset path %s is not a directory", dir)
	}
	return LoadFS(os.DirFS(dir), logger)
}

// LoadFS reads a dataset from any file system. Only the incidence table is
// required; missing optional tables load as empty and are logged.
func LoadFS(fsys fs.FS, logger logrus.FieldLogger) (Tables, error) {
	logger = logging.OrDiscard(logger)
	var t Tables

	name, f, err := openFirst(fsys, trainingFiles)
	if err != nil {
		return Tables{}, err
	}
	if f == nil {
		return Tables{}, fmt.Errorf("%s: %w", strings.Join(trainingFiles, " or "), ErrMissingTable)
	}
	t.Symptoms, t.Profiles, err = parseTraining(f)
	_ = f.Close()
	if err != nil {
		return Tables{}, fmt.Errorf("parse %s: %w", name, err)
	}

	if err := loadOptional(fsys, severityFiles, logger, func(r io.Reader) (err error) {
		t.Severity, err = parseSeverity(r)
		return err
	}); err != nil {
		return Tables{}, err
	}

	if err := loadOptional(fsys, descriptionFiles, logger, func(r io.Reader) (err error) {
		t.Descriptions, err = parseDescriptions(r)
		return err
	}); err != nil {
		return Tables{}, err
	}

	if err := loadOptional(fsys, precautionFiles, logger, func(r io.Reader) (err error) {
		t.Precautions, err = parsePrecautions(r)
		return err
	}); err != nil {
		return Tables{}, err
	}

	name, f, err = openFirst(fsys, synonymFiles)
	if err != nil {
		return Tables{}, err
	}
	if f == nil {
		logger.WithField("table", "synonyms").Warn("Synonym table not found, using exact matching only")
	} else {
		t.Synonyms, err = parseSynonyms(f, path.Ext(name))
		_ = f.Close()
		if err != nil {
			return Tables{}, fmt.Errorf("parse %s: %w", name, err)
		}
	}

	return t, nil
}

func loadOptional(fsys fs.FS, names []string, logger logrus.FieldLogger, parse func(io.Reader) error) error {
	name, f, err := openFirst(fsys, names)
	if err != nil {
		return err
	}
	if f == nil {
		logger.WithField("table", names[0]).Warn("Optional table not found")
		return nil
	}
	defer func() { _ = f.Close() }()

	if err := parse(f); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// openFirst opens the first existing file; a nil file means none exist
func openFirst(fsys fs.FS, names []string) (string, fs.File, error) {
	for _, name := range names {
		f, err := fsys.Open(name)
		if err == nil {
			return name, f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", nil, fmt.Errorf("open %s: %w", name, err)
		}
	}
	return "", nil, nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	return cr
}

// parseTraining reads the incidence matrix: one disease column plus one 0/1
// column per symptom. Repeated disease rows are merged.
func parseTraining(r io.Reader) ([]string, []ProfileRow, error) {
	records, err := newCSVReader(r).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, errors.New("empty incidence table")
	}

	header := records[0]
	diseaseCol := 0
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "prognosis", "disease":
			diseaseCol = i
		}
	}

	var symptoms []string
	for i, col := range header {
		if i == diseaseCol {
			continue
		}
		if col = strings.TrimSpace(col); col != "" {
			symptoms = append(symptoms, col)
		}
	}

	var rows []ProfileRow
	index := make(map[string]int)
	for line, record := range records[1:] {
		if diseaseCol >= len(record) {
			return nil, nil, fmt.Errorf("line %d: missing disease column", line+2)
		}
		disease := strings.TrimSpace(record[diseaseCol])
		if disease == "" {
			continue
		}

		i, seen := index[strings.ToLower(disease)]
		if !seen {
			i = len(rows)
			index[strings.ToLower(disease)] = i
			rows = append(rows, ProfileRow{Disease: disease})
		}

		for col, cell := range record {
			if col == diseaseCol || col >= len(header) {
				continue
			}
			symptom := strings.TrimSpace(header[col])
			if symptom != "" && isPresent(cell) {
				rows[i].Symptoms = appendUnique(rows[i].Symptoms, symptom)
			}
		}
	}

	return symptoms, rows, nil
}

func isPresent(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "1", "1.0", "true", "yes", "y", "x":
		return true
	}
	return false
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}

// parseSeverity reads "symptom,weight" rows; a non-numeric first row is a header
func parseSeverity(r io.Reader) ([]SeverityRow, error) {
	records, err := newCSVReader(r).ReadAll()
	if err != nil {
		return nil, err
	}

	var rows []SeverityRow
	for line, record := range records {
		if len(record) < 2 || strings.TrimSpace(record[0]) == "" {
			continue
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			if line == 0 {
				continue
			}
			return nil, fmt.Errorf("line %d: weight %q: %w", line+1, record[1], ErrInvalidWeight)
		}
		rows = append(rows, SeverityRow{Symptom: strings.TrimSpace(record[0]), Weight: weight})
	}
	return rows, nil
}

// parseDescriptions reads "disease,description" rows after a header
func parseDescriptions(r io.Reader) (map[string]string, error) {
	records, err := newCSVReader(r).ReadAll()
	if err != nil {
		return nil, err
	}

	out := make(map[string]string)
	for _, record := range skipHeader(records) {
		if len(record) < 2 || strings.TrimSpace(record[0]) == "" {
			continue
		}
		out[strings.TrimSpace(record[0])] = strings.TrimSpace(record[1])
	}
	return out, nil
}

// parsePrecautions reads "disease,p1,p2,..." rows after a header; blank cells are skipped
func parsePrecautions(r io.Reader) (map[string][]string, error) {
	records, err := newCSVReader(r).ReadAll()
	if err != nil {
		return nil, err
	}

	out := make(map[string][]string)
	for _, record := range skipHeader(records) {
		if len(record) < 2 || strings.TrimSpace(record[0]) == "" {
			continue
		}
		out[strings.TrimSpace(record[0])] = cleanList(record[1:])
	}
	return out, nil
}

func skipHeader(records [][]string) [][]string {
	if len(records) == 0 {
		return records
	}
	first := strings.ToLower(strings.TrimSpace(records[0][0]))
	if first == "disease" || first == "prognosis" || first == "symptom" {
		return records[1:]
	}
	return records
}

// parseSynonyms reads {canonical: [alias, ...]} as JSON or YAML
func parseSynonyms(r io.Reader, ext string) (map[string][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]string)
	switch strings.ToLower(ext) {
	case ".json":
		err = json.Unmarshal(data, &out)
	default:
		err = yaml.Unmarshal(data, &out)
	}
	if err != nil {
		return nil, fmt.Errorf("synonyms must map canonical symptoms to alias lists: %w", err)
	}
	return out, nil
}
