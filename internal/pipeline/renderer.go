package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ppiankov/medimatch/internal/model"
)

// Format selects how results are rendered
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ErrUnknownFormat is returned for an unsupported output format
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat accepts text, markdown (or md) and json
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownFormat)
}

// Renderer presents pipeline output for humans or machines
type Renderer struct {
	format Format
}

// NewRenderer creates a renderer for the given format
func NewRenderer(format Format) *Renderer {
	if format == "" {
		format = FormatText
	}
	return &Renderer{format: format}
}

// printer keeps the first write error so render code stays linear
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, a ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, a...)
}

func percent(x float64) string {
	return fmt.Sprintf("%.1f%%", x*100)
}

func joinSymptoms(symptoms []model.Symptom) string {
	if len(symptoms) == 0 {
		return "-"
	}
	parts := make([]string, len(symptoms))
	for i, s := range symptoms {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// RenderResult writes one diagnosis
func (r *Renderer) RenderResult(w io.Writer, res model.MatchResult) error {
	switch r.format {
	case FormatJSON:
		return writeJSON(w, res)
	case FormatMarkdown:
		return renderResultMarkdown(w, res)
	default:
		return renderResultText(w, res)
	}
}

func confidenceLine(res model.MatchResult) string {
	if res.IsUnknown() {
		if res.Confidence == 0 {
			return fmt.Sprintf("no profile matched (threshold %s)", percent(res.Threshold))
		}
		return fmt.Sprintf("best match was %s, below the %s threshold", percent(res.Confidence), percent(res.Threshold))
	}
	return fmt.Sprintf("%s (threshold %s)", percent(res.Confidence), percent(res.Threshold))
}

func renderResultText(w io.Writer, res model.MatchResult) error {
	p := &printer{w: w}

	p.printf("Diagnosis:     %s\n", res.Disease)
	p.printf("Confidence:    %s\n", confidenceLine(res))
	p.printf("Severity:      %s\n", res.Severity)
	if !res.IsUnknown() {
		p.printf("Matched:       %s\n", joinSymptoms(res.Matched))
		p.printf("Missing:       %s\n", joinSymptoms(res.Missing))
	}
	if len(res.Unmatched) > 0 {
		p.printf("Not in profile: %s\n", joinSymptoms(res.Unmatched))
	}
	if len(res.Unrecognized) > 0 {
		p.printf("Unrecognized:  %s\n", strings.Join(res.Unrecognized, ", "))
	}

	p.printf("\n%s\n", res.Description)

	if len(res.Precautions) > 0 {
		p.printf("\nPrecautions:\n")
		for i, item := range res.Precautions {
			p.printf("  %d. %s\n", i+1, item)
		}
	}

	if len(res.Candidates) > 0 {
		p.printf("\nCandidates:\n")
		for i, c := range res.Candidates {
			p.printf("  %d. %-28s %7s  matched %d/%d\n", i+1, c.Disease, percent(c.Score), len(c.Matched), len(c.Matched)+len(c.Missing))
		}
	}

	return p.err
}

func renderResultMarkdown(w io.Writer, res model.MatchResult) error {
	p := &printer{w: w}

	p.printf("# %s\n\n", res.Disease)
	p.printf("- **Confidence:** %s\n", confidenceLine(res))
	p.printf("- **Severity:** %s\n", res.Severity)
	if !res.IsUnknown() {
		p.printf("- **Matched:** %s\n", joinSymptoms(res.Matched))
		p.printf("- **Missing:** %s\n", joinSymptoms(res.Missing))
	}
	if len(res.Unmatched) > 0 {
		p.printf("- **Not in profile:** %s\n", joinSymptoms(res.Unmatched))
	}
	if len(res.Unrecognized) > 0 {
		p.printf("- **Unrecognized:** %s\n", strings.Join(res.Unrecognized, ", "))
	}

	p.printf("\n## Description\n\n%s\n", res.Description)

	if len(res.Precautions) > 0 {
		p.printf("\n## Precautions\n\n")
		for i, item := range res.Precautions {
			p.printf("%d. %s\n", i+1, item)
		}
	}

	if len(res.Candidates) > 0 {
		p.printf("\n## Candidates\n\n")
		p.printf("| # | Disease | Score | Matched |\n")
		p.printf("|---|---------|-------|---------|\n")
		for i, c := range res.Candidates {
			p.printf("| %d | %s | %s | %d/%d |\n", i+1, c.Disease, percent(c.Score), len(c.Matched), len(c.Matched)+len(c.Missing))
		}
	}

	p.printf("\n---\n\n*Informational only. Not a medical diagnosis.*\n")

	return p.err
}

// RenderDiseases writes the disease list
func (r *Renderer) RenderDiseases(w io.Writer, names []string) error {
	if r.format == FormatJSON {
		return writeJSON(w, names)
	}

	p := &printer{w: w}
	bullet := ""
	if r.format == FormatMarkdown {
		bullet = "- "
	}
	for _, name := range names {
		p.printf("%s%s\n", bullet, name)
	}
	return p.err
}

// RenderDisease writes the detail view of one disease
func (r *Renderer) RenderDisease(w io.Writer, info DiseaseInfo) error {
	if r.format == FormatJSON {
		return writeJSON(w, info)
	}

	p := &printer{w: w}
	markdown := r.format == FormatMarkdown

	if markdown {
		p.printf("# %s\n\n", info.Name)
	} else {
		p.printf("%s\n%s\n\n", info.Name, strings.Repeat("=", len(info.Name)))
	}

	description := info.Description
	if description == "" {
		description = "(no description)"
	}
	p.printf("%s\n\n", description)

	if markdown {
		p.printf("## Symptoms\n\n| Symptom | Weight |\n|---------|--------|\n")
		for _, s := range info.Symptoms {
			p.printf("| %s | %g |\n", s.Symptom, s.Weight)
		}
	} else {
		p.printf("Symptoms (by severity):\n")
		for _, s := range info.Symptoms {
			p.printf("  %-30s %g\n", s.Symptom, s.Weight)
		}
	}

	if len(info.Precautions) > 0 {
		if markdown {
			p.printf("\n## Precautions\n\n")
		} else {
			p.printf("\nPrecautions:\n")
		}
		for i, item := range info.Precautions {
			if markdown {
				p.printf("%d. %s\n", i+1, item)
			} else {
				p.printf("  %d. %s\n", i+1, item)
			}
		}
	}

	return p.err
}

// RenderHealth writes the dataset health report
func (r *Renderer) RenderHealth(w io.Writer, h Health) error {
	if r.format == FormatJSON {
		return writeJSON(w, h)
	}

	p := &printer{w: w}
	rows := []struct {
		label string
		value string
	}{
		{"Status", h.Status},
		{"Source", h.Source},
		{"Diseases", humanize.Comma(int64(h.Stats.Diseases))},
		{"Symptoms", humanize.Comma(int64(h.Stats.Symptoms))},
		{"Aliases", humanize.Comma(int64(h.Stats.Aliases))},
		{"Severity entries", humanize.Comma(int64(h.Stats.SeverityEntries))},
		{"Descriptions", humanize.Comma(int64(h.Stats.Descriptions))},
		{"Precaution lists", humanize.Comma(int64(h.Stats.Precautions))},
		{"Threshold", percent(h.Threshold)},
		{"Result cache", fmt.Sprintf("%t", h.Cache)},
	}

	if r.format == FormatMarkdown {
		p.printf("| Check | Value |\n|-------|-------|\n")
		for _, row := range rows {
			p.printf("| %s | %s |\n", row.label, row.value)
		}
		return p.err
	}

	for _, row := range rows {
		p.printf("%-18s %s\n", row.label+":", row.value)
	}
	return p.err
}

// WriteFile renders into path, creating parent directories
func WriteFile(path string, render func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close file: %w", closeErr)
		}
	}()

	return render(f)
}
