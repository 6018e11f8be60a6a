package vocab

import (
	"strings"

	"github.com/ppiankov/medimatch/internal/logging"
	"github.com/ppiankov/medimatch/internal/model"
	"github.com/sirupsen/logrus"
)

// Normalizer turns raw user input into a set of canonical symptoms
type Normalizer struct {
	vocab     *Vocabulary
	delimiter string
	logger    logrus.FieldLogger
}

// Normalized is the outcome of normalizing one input string
type Normalized struct {
	Symptoms     model.SymptomSet
	Unrecognized []string // trimmed raw tokens that resolved to nothing, first-seen order
}

// NewNormalizer creates a normalizer. An empty delimiter falls back to a comma;
// a nil logger discards observability output.
func NewNormalizer(v *Vocabulary, delimiter string, logger logrus.FieldLogger) *Normalizer {
	if delimiter == "" {
		delimiter = model.DefaultSymptomDelimiter
	}
	return &Normalizer{
		vocab:     v,
		delimiter: delimiter,
		logger:    logging.OrDiscard(logger),
	}
}

// Normalize splits raw on the delimiter, cleans every token and resolves it.
// Unresolvable tokens are dropped and reported, never an error; empty input
// yields an empty set.
func (n *Normalizer) Normalize(raw string) Normalized {
	result := Normalized{Symptoms: model.NewSymptomSet()}
	seenUnknown := make(map[string]bool)

	for _, token := range strings.Split(raw, n.delimiter) {
		trimmed := strings.TrimSpace(token)
		if trimmed == "" {
			continue
		}

		cleaned := Clean(token)
		if cleaned != "" {
			if symptom, ok := n.vocab.Resolve(cleaned); ok {
				result.Symptoms.Add(symptom)
				continue
			}
		}

		// Tokens that clean to nothing are keyed by their raw text
		key := cleaned
		if key == "" {
			key = trimmed
		}
		if !seenUnknown[key] {
			seenUnknown[key] = true
			result.Unrecognized = append(result.Unrecognized, trimmed)
			n.logger.WithFields(logrus.Fields{
				"token":   trimmed,
				"cleaned": cleaned,
			}).Debug("Dropping unrecognized symptom")
		}
	}

	return result
}
