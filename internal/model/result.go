package model

// UnknownCondition is the disease name reported when no profile clears the threshold
const UnknownCondition = "Unknown Condition"

// MatchResult is the outcome of one query. It is built once and never mutated.
type MatchResult struct {
	Disease     string    `json:"disease"`     // Winning profile name or UnknownCondition
	Confidence  float64   `json:"confidence"`  // Winning weighted score in [0,1], also reported when unknown
	Matched     []Symptom `json:"matched"`     // Profile symptoms the user reported
	Missing     []Symptom `json:"missing"`     // Profile symptoms the user did not report
	Description string    `json:"description"` // Condition description or generic fallback
	Precautions []string  `json:"precautions"` // Ordered precaution list

	Unmatched    []Symptom     `json:"unmatched,omitempty"`    // User symptoms outside the winning profile
	Unrecognized []string      `json:"unrecognized,omitempty"` // Raw tokens the normalizer dropped
	Severity     SeverityLevel `json:"severity"`               // Severity level of the matched symptoms
	Threshold    float64       `json:"threshold"`              // Confidence threshold applied
	Candidates   []Candidate   `json:"candidates,omitempty"`   // Ranked alternatives, when requested
}

// IsUnknown reports whether the result is the fallback condition
func (r MatchResult) IsUnknown() bool {
	return r.Disease == UnknownCondition
}

// Candidate is one scored profile, used for ranking diagnostics
type Candidate struct {
	Disease string    `json:"disease"`
	Score   float64   `json:"score"`
	Matched []Symptom `json:"matched"`
	Missing []Symptom `json:"missing"`
	Extra   []Symptom `json:"extra,omitempty"`

	// Weighted overlap and weighted total behind Score
	Overlap float64 `json:"overlap"`
	Total   float64 `json:"total"`
}

// SeverityLevel buckets the severity weights of matched symptoms
type SeverityLevel string

const (
	SeverityUnknown  SeverityLevel = "unknown"
	SeverityLow      SeverityLevel = "low"
	SeverityModerate SeverityLevel = "moderate"
	SeverityHigh     SeverityLevel = "high"
)
