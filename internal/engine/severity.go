package engine

import "github.com/ppiankov/medimatch/internal/model"

// Severity level cut-offs on the configured weight scale
const (
	highMaxWeight      = 6
	highMeanWeight     = 5
	moderateMaxWeight  = 4
	moderateMeanWeight = 3
)

// SeverityLevel buckets the configured weights of the given symptoms.
// Symptoms without a severity entry are ignored; with none left the level is unknown.
func (e *Engine) SeverityLevel(symptoms []model.Symptom) model.SeverityLevel {
	var sum, peak float64
	n := 0
	for _, s := range symptoms {
		w, ok := e.knowledge.Severity.Lookup(s)
		if !ok {
			continue
		}
		sum += w
		if w > peak {
			peak = w
		}
		n++
	}
	if n == 0 {
		return model.SeverityUnknown
	}

	mean := sum / float64(n)
	switch {
	case peak >= highMaxWeight || mean >= highMeanWeight:
		return model.SeverityHigh
	case peak >= moderateMaxWeight || mean >= moderateMeanWeight:
		return model.SeverityModerate
	default:
		return model.SeverityLow
	}
}
