// Package pipeline wires the normalizer, the result cache and the matching
// engine into the single entry point used by the CLI, batch runs and the HTTP API.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/medimatch/internal/cache"
	"github.com/ppiankov/medimatch/internal/dataset"
	"github.com/ppiankov/medimatch/internal/engine"
	"github.com/ppiankov/medimatch/internal/logging"
	"github.com/ppiankov/medimatch/internal/model"
	"github.com/ppiankov/medimatch/internal/vocab"
	"github.com/sirupsen/logrus"
)

// ErrDiseaseNotFound is returned when a disease lookup has no match
var ErrDiseaseNotFound = errors.New("disease not found")

// Pipeline orchestrates normalize -> cache -> match
type Pipeline struct {
	normalizer  *vocab.Normalizer
	engine      *engine.Engine
	cache       cache.Cache // nil when caching is disabled
	cacheTTL    time.Duration
	fingerprint string
	source      string
	logger      logrus.FieldLogger
}

// NewPipeline creates a pipeline over k using cfg. source names where k came
// from and is only reported by Health.
func NewPipeline(cfg *model.Config, k *dataset.Knowledge, source string, logger logrus.FieldLogger) (*Pipeline, error) {
	logger = logging.OrDiscard(logger)

	eng, err := engine.New(k, engine.OptionsFromConfig(cfg.Engine), logger.WithField("component", "engine"))
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		normalizer: vocab.NewNormalizer(k.Vocabulary, cfg.Normalizer.SymptomDelimiter, logger.WithField("component", "normalizer")),
		engine:     eng,
		cacheTTL:   cfg.Cache.TTL,
		source:     source,
		logger:     logger,
	}
	p.fingerprint = fingerprint(k, eng.Options())

	if cfg.Cache.Enabled {
		if cfg.Cache.Dir != "" {
			p.cache = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
		} else {
			p.cache = cache.NewMemoryCache(cfg.Cache.TTL, 10*time.Minute)
		}
	}

	return p, nil
}

// Diagnose normalizes raw and returns the decision. The only error is a done context.
func (p *Pipeline) Diagnose(ctx context.Context, raw string) (model.MatchResult, error) {
	return p.DiagnoseRanked(ctx, raw, 0)
}

// DiagnoseRanked is Diagnose plus the top n ranked candidates (none when n <= 0)
func (p *Pipeline) DiagnoseRanked(ctx context.Context, raw string, n int) (model.MatchResult, error) {
	if err := ctx.Err(); err != nil {
		return model.MatchResult{}, err
	}

	normalized := p.normalizer.Normalize(raw)

	key := cache.Key(normalized.Symptoms.Key(), fmt.Sprintf("%s;n=%d", p.fingerprint, n))
	result, cached := p.lookup(key)
	if !cached {
		result = p.engine.Match(normalized.Symptoms)
		if n > 0 && normalized.Symptoms.Len() > 0 {
			result.Candidates = p.engine.Rank(normalized.Symptoms, n)
		}
		p.store(key, result)
	}

	// Unrecognized depends on the raw text, not the normalized set
	result.Unrecognized = normalized.Unrecognized

	p.logger.WithFields(logrus.Fields{
		"disease":      result.Disease,
		"confidence":   result.Confidence,
		"symptoms":     normalized.Symptoms.Len(),
		"unrecognized": len(normalized.Unrecognized),
		"cached":       cached,
	}).Debug("Diagnosis complete")

	return result, nil
}

func (p *Pipeline) lookup(key string) (model.MatchResult, bool) {
	if p.cache == nil {
		return model.MatchResult{}, false
	}
	data, ok := p.cache.Get(key)
	if !ok {
		return model.MatchResult{}, false
	}

	var result model.MatchResult
	if err := json.Unmarshal(data, &result); err != nil {
		p.logger.WithError(err).Warn("Dropping unreadable cache entry")
		_ = p.cache.Delete(key)
		return model.MatchResult{}, false
	}
	return result, true
}

func (p *Pipeline) store(key string, result model.MatchResult) {
	if p.cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		p.logger.WithError(err).Warn("Failed to encode result for cache")
		return
	}
	if err := p.cache.Set(key, data, p.cacheTTL); err != nil {
		p.logger.WithError(err).Warn("Failed to cache result")
	}
}

// Diseases returns every disease name in order
func (p *Pipeline) Diseases() []string {
	return p.engine.Knowledge().Profiles.Names()
}

// DiseaseInfo is the detail view of one reference condition
type DiseaseInfo struct {
	Name        string                `json:"name" yaml:"name"`
	Description string                `json:"description" yaml:"description"`
	Precautions []string              `json:"precautions" yaml:"precautions"`
	Symptoms    []model.SeverityEntry `json:"symptoms" yaml:"symptoms"` // by descending weight
}

// Disease looks a disease up by name, case-insensitively
func (p *Pipeline) Disease(name string) (DiseaseInfo, error) {
	profile, ok := p.engine.Knowledge().Profiles.Get(name)
	if !ok {
		return DiseaseInfo{}, fmt.Errorf("%q: %w", strings.TrimSpace(name), ErrDiseaseNotFound)
	}

	full := p.engine.Score(profile.Symptoms, profile)
	opts := p.engine.Options()

	info := DiseaseInfo{
		Name:        profile.Name,
		Description: profile.Description,
		Precautions: append([]string{}, profile.Precautions...),
		Symptoms:    make([]model.SeverityEntry, 0, len(full.Matched)),
	}
	for _, s := range full.Matched {
		info.Symptoms = append(info.Symptoms, model.SeverityEntry{
			Symptom: s,
			Weight:  p.engine.Knowledge().Severity.Weight(s, opts.DefaultWeight),
		})
	}
	return info, nil
}

// Health reports the loaded dataset and the active policy
type Health struct {
	Status    string        `json:"status" yaml:"status"`
	Source    string        `json:"source" yaml:"source"`
	Stats     dataset.Stats `json:"stats" yaml:"stats"`
	Threshold float64       `json:"threshold" yaml:"threshold"`
	Cache     bool          `json:"cache" yaml:"cache"`
}

// Health summarizes the pipeline state. A pipeline only exists over a
// validated snapshot, so the status is always healthy.
func (p *Pipeline) Health() Health {
	return Health{
		Status:    "healthy",
		Source:    p.source,
		Stats:     p.engine.Knowledge().Stats(),
		Threshold: p.engine.Options().Threshold,
		Cache:     p.cache != nil,
	}
}

// fingerprint identifies the reference data and policy behind cached results
func fingerprint(k *dataset.Knowledge, opts engine.Options) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "t=%g;w=%g;m=%d\n", opts.Threshold, opts.DefaultWeight, opts.MaxMissing)
	for _, p := range k.Profiles.All() {
		_, _ = fmt.Fprintf(h, "%s:%s:%s:%s\n", p.Name, p.Symptoms.Key(), p.Description, strings.Join(p.Precautions, "|"))
	}
	for _, e := range k.Severity.Entries() {
		_, _ = fmt.Fprintf(h, "%s=%g\n", e.Symptom, e.Weight)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
