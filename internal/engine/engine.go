// Package engine scores a normalized symptom set against every disease
// profile and decides between a diagnosis and the unknown-condition fallback.
//
// Scoring is transparent: a profile's score is the severity-weighted share of
// its symptoms that the user reported,
//
//	score(D) = sum(weight(s) for s in U ∩ D) / sum(weight(s) for s in D)
//
// so it lies in [0,1] and reaches 1 exactly when every profile symptom is present.
package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ppiankov/medimatch/internal/dataset"
	"github.com/ppiankov/medimatch/internal/logging"
	"github.com/ppiankov/medimatch/internal/model"
	"github.com/sirupsen/logrus"
)

// ErrInvalidOption reports an unusable engine configuration
var ErrInvalidOption = errors.New("invalid engine option")

const (
	// UnknownDescription is returned with the unknown-condition fallback
	UnknownDescription = "Your symptoms don't match our database patterns closely enough. " +
		"They may be too general, belong to a condition outside this database, or need a more specific description. " +
		"Please consult a healthcare professional for proper evaluation."

	// MissingDescription is used when a diagnosed disease has no description
	MissingDescription = "No detailed description available for this condition."
)

// scoreEpsilon absorbs rounding when comparing scores built from fractional weights
const scoreEpsilon = 1e-9

// DefaultPrecautions is used when a diagnosed disease has no precaution list
var DefaultPrecautions = []string{
	"Monitor your symptoms carefully",
	"Stay well hydrated",
	"Get adequate rest",
	"Consult a healthcare professional if symptoms persist or worsen",
}

// Options tunes the decision policy
type Options struct {
	Threshold     float64 // minimum winning score for a diagnosis, in [0,1]
	DefaultWeight float64 // weight of symptoms without a severity entry, > 0
	MaxMissing    int     // cap on reported missing symptoms; 0 = no cap
}

// DefaultOptions returns the default decision policy
func DefaultOptions() Options {
	return Options{
		Threshold:     model.DefaultConfidenceThreshold,
		DefaultWeight: model.DefaultSeverityWeight,
	}
}

// OptionsFromConfig maps the engine section of the configuration. An unset
// (zero) default weight keeps the built-in default.
func OptionsFromConfig(cfg model.EngineConfig) Options {
	opts := DefaultOptions()
	opts.Threshold = cfg.ConfidenceThreshold
	opts.MaxMissing = cfg.MaxMissing
	if cfg.DefaultSeverityWeight != 0 {
		opts.DefaultWeight = cfg.DefaultSeverityWeight
	}
	return opts
}

// Engine matches symptom sets against an immutable Knowledge snapshot.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	knowledge *dataset.Knowledge
	opts      Options
	logger    logrus.FieldLogger
}

// New creates an engine. An empty profile store or out-of-range options are
// configuration errors.
func New(k *dataset.Knowledge, opts Options, logger logrus.FieldLogger) (*Engine, error) {
	if k == nil || k.Profiles == nil || k.Profiles.Len() == 0 {
		return nil, dataset.ErrEmptyStore
	}
	if math.IsNaN(opts.Threshold) || opts.Threshold < 0 || opts.Threshold > 1 {
		return nil, fmt.Errorf("confidence threshold %v outside [0,1]: %w", opts.Threshold, ErrInvalidOption)
	}
	if math.IsNaN(opts.DefaultWeight) || math.IsInf(opts.DefaultWeight, 0) || opts.DefaultWeight <= 0 {
		return nil, fmt.Errorf("default severity weight %v must be positive: %w", opts.DefaultWeight, ErrInvalidOption)
	}
	if opts.MaxMissing < 0 {
		return nil, fmt.Errorf("max missing %d must not be negative: %w", opts.MaxMissing, ErrInvalidOption)
	}

	return &Engine{
		knowledge: k,
		opts:      opts,
		logger:    logging.OrDiscard(logger),
	}, nil
}

// Options returns the engine's decision policy
func (e *Engine) Options() Options {
	return e.opts
}

// Knowledge returns the snapshot the engine reads
func (e *Engine) Knowledge() *dataset.Knowledge {
	return e.knowledge
}

func (e *Engine) weight(s model.Symptom) float64 {
	return e.knowledge.Severity.Weight(s, e.opts.DefaultWeight)
}

// Score compares the user's symptoms with one profile
func (e *Engine) Score(user model.SymptomSet, profile model.DiseaseProfile) model.Candidate {
	c := model.Candidate{
		Disease: profile.Name,
		Matched: []model.Symptom{},
		Missing: []model.Symptom{},
	}

	// Both sums walk the profile in the same order, so a full match gives exactly 1
	for _, s := range profile.Symptoms.Sorted() {
		w := e.weight(s)
		c.Total += w
		if user.Has(s) {
			c.Overlap += w
			c.Matched = append(c.Matched, s)
		} else {
			c.Missing = append(c.Missing, s)
		}
	}
	for _, s := range user.Sorted() {
		if !profile.Symptoms.Has(s) {
			c.Extra = append(c.Extra, s)
		}
	}

	if c.Total > 0 {
		c.Score = c.Overlap / c.Total
	}

	e.bySeverity(c.Matched)
	e.bySeverity(c.Missing)
	return c
}

// bySeverity orders symptoms by descending weight, then name
func (e *Engine) bySeverity(symptoms []model.Symptom) {
	sort.SliceStable(symptoms, func(i, j int) bool {
		wi, wj := e.weight(symptoms[i]), e.weight(symptoms[j])
		if wi != wj {
			return wi > wj
		}
		return symptoms[i] < symptoms[j]
	})
}

// better reports whether a outranks b: higher score, then fewer missing
// symptoms, then the lexicographically smaller name. Scores within
// scoreEpsilon of each other are equal.
func better(a, b model.Candidate) bool {
	if math.Abs(a.Score-b.Score) > scoreEpsilon {
		return a.Score > b.Score
	}
	if len(a.Missing) != len(b.Missing) {
		return len(a.Missing) < len(b.Missing)
	}
	return a.Disease < b.Disease
}

// Rank scores every profile and returns the best n in ranking order (all when n <= 0)
func (e *Engine) Rank(user model.SymptomSet, n int) []model.Candidate {
	profiles := e.knowledge.Profiles.All()
	candidates := make([]model.Candidate, 0, len(profiles))
	for _, p := range profiles {
		candidates = append(candidates, e.Score(user, p))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return better(candidates[i], candidates[j])
	})

	if n > 0 && n < len(candidates) {
		candidates = candidates[:n]
	}
	return candidates
}

// best returns the top candidate without sorting the whole field
func (e *Engine) best(user model.SymptomSet) model.Candidate {
	var top model.Candidate
	for i, p := range e.knowledge.Profiles.All() {
		c := e.Score(user, p)
		if i == 0 || better(c, top) {
			top = c
		}
	}
	return top
}

// Match runs the decision policy and returns exactly one result. It never
// fails: empty input and weak matches become the unknown-condition result,
// with the winning score still reported as confidence.
func (e *Engine) Match(user model.SymptomSet) model.MatchResult {
	if user.Len() == 0 {
		e.logger.Debug("No recognized symptoms, returning unknown condition")
		return e.unknown(user, 0)
	}

	top := e.best(user)

	fields := logrus.Fields{
		"disease":   top.Disease,
		"score":     top.Score,
		"threshold": e.opts.Threshold,
		"symptoms":  user.Len(),
	}

	if top.Score == 0 || top.Score < e.opts.Threshold-scoreEpsilon {
		e.logger.WithFields(fields).Debug("Best match below threshold")
		return e.unknown(user, top.Score)
	}

	e.logger.WithFields(fields).Debug("Diagnosis selected")
	return e.diagnosis(top)
}

func (e *Engine) diagnosis(top model.Candidate) model.MatchResult {
	profile, _ := e.knowledge.Profiles.Get(top.Disease)

	description := profile.Description
	if description == "" {
		description = MissingDescription
	}

	precautions := profile.Precautions
	if len(precautions) == 0 {
		precautions = DefaultPrecautions
	}

	missing := top.Missing
	if e.opts.MaxMissing > 0 && len(missing) > e.opts.MaxMissing {
		missing = missing[:e.opts.MaxMissing]
	}

	return model.MatchResult{
		Disease:     profile.Name,
		Confidence:  top.Score,
		Matched:     top.Matched,
		Missing:     missing,
		Description: description,
		Precautions: append([]string(nil), precautions...),
		Unmatched:   top.Extra,
		Severity:    e.SeverityLevel(top.Matched),
		Threshold:   e.opts.Threshold,
	}
}

func (e *Engine) unknown(user model.SymptomSet, confidence float64) model.MatchResult {
	return model.MatchResult{
		Disease:     model.UnknownCondition,
		Confidence:  confidence,
		Matched:     []model.Symptom{},
		Missing:     []model.Symptom{},
		Description: UnknownDescription,
		Precautions: []string{},
		Unmatched:   user.Sorted(),
		Severity:    model.SeverityUnknown,
		Threshold:   e.opts.Threshold,
	}
}
