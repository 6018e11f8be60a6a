package vocab

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ppiankov/medimatch/internal/model"
)

var (
	ErrEmptySymptom     = errors.New("symptom name is empty after cleaning")
	ErrUnknownCanonical = errors.New("synonym group refers to an unknown canonical symptom")
	ErrAliasConflict    = errors.New("alias maps to more than one canonical symptom")
)

// Vocabulary holds the canonical symptom set and the alias table.
// It is immutable once built and safe for concurrent use.
type Vocabulary struct {
	canonical map[model.Symptom]struct{}
	aliases   map[string]model.Symptom
}

// NewVocabulary builds a vocabulary from canonical names and synonym groups
// (canonical name -> aliases). Every name is passed through Clean. Duplicate
// canonical names collapse. Group keys must be canonical, and an alias may
// resolve to one canonical symptom only.
func NewVocabulary(canonical []string, groups map[string][]string) (*Vocabulary, error) {
	v := &Vocabulary{
		canonical: make(map[model.Symptom]struct{}, len(canonical)),
		aliases:   make(map[string]model.Symptom),
	}

	for _, name := range canonical {
		cleaned := Clean(name)
		if cleaned == "" {
			return nil, fmt.Errorf("canonical %q: %w", name, ErrEmptySymptom)
		}
		v.canonical[model.Symptom(cleaned)] = struct{}{}
	}

	// Sorted keys keep error reporting deterministic
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		target := model.Symptom(Clean(key))
		if _, ok := v.canonical[target]; !ok {
			return nil, fmt.Errorf("synonym group %q: %w", key, ErrUnknownCanonical)
		}
		for _, alias := range groups[key] {
			cleaned := Clean(alias)
			if cleaned == "" || model.Symptom(cleaned) == target {
				continue
			}
			if _, isCanonical := v.canonical[model.Symptom(cleaned)]; isCanonical {
				return nil, fmt.Errorf("alias %q of %q is itself canonical: %w", alias, key, ErrAliasConflict)
			}
			if existing, ok := v.aliases[cleaned]; ok && existing != target {
				return nil, fmt.Errorf("alias %q -> %q and %q: %w", alias, existing, target, ErrAliasConflict)
			}
			v.aliases[cleaned] = target
		}
	}

	return v, nil
}

// Resolve maps an already-cleaned token to its canonical symptom.
// Aliases are checked before the canonical set.
func (v *Vocabulary) Resolve(cleaned string) (model.Symptom, bool) {
	if target, ok := v.aliases[cleaned]; ok {
		return target, true
	}
	if _, ok := v.canonical[model.Symptom(cleaned)]; ok {
		return model.Symptom(cleaned), true
	}
	return "", false
}

// Lookup cleans a raw phrase and resolves it
func (v *Vocabulary) Lookup(raw string) (model.Symptom, bool) {
	return v.Resolve(Clean(raw))
}

// Symptoms returns the canonical set in sorted order
func (v *Vocabulary) Symptoms() []model.Symptom {
	out := make([]model.Symptom, 0, len(v.canonical))
	for symptom := range v.canonical {
		out = append(out, symptom)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Size returns the number of canonical symptoms and aliases
func (v *Vocabulary) Size() (canonical int, aliases int) {
	return len(v.canonical), len(v.aliases)
}
