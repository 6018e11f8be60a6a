package store

// Symptom is one declared canonical symptom
type Symptom struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"not null;uniqueIndex"`
}

// Disease is one reference condition with its incidence row and detail
type Disease struct {
	ID          uint             `gorm:"primaryKey"`
	Name        string           `gorm:"not null;uniqueIndex"`
	Description string           `gorm:"not null;default:''"`
	Symptoms    []DiseaseSymptom `gorm:"constraint:OnDelete:CASCADE"`
	Precautions []Precaution     `gorm:"constraint:OnDelete:CASCADE"`
}

// DiseaseSymptom links a disease to one of its symptoms
type DiseaseSymptom struct {
	ID        uint   `gorm:"primaryKey"`
	DiseaseID uint   `gorm:"not null;index"`
	Symptom   string `gorm:"not null"`
}

// Precaution is one ordered precaution of a disease
type Precaution struct {
	ID        uint   `gorm:"primaryKey"`
	DiseaseID uint   `gorm:"not null;index"`
	Position  int    `gorm:"not null"`
	Text      string `gorm:"not null"`
}

// SeverityWeight is one severity table row
type SeverityWeight struct {
	ID      uint    `gorm:"primaryKey"`
	Symptom string  `gorm:"not null;index"`
	Weight  float64 `gorm:"not null"`
}

// SymptomAlias maps an alias to a canonical symptom. Aliases are not unique
// here so conflicting rows surface as a validation error at load time.
type SymptomAlias struct {
	ID        uint   `gorm:"primaryKey"`
	Alias     string `gorm:"not null;index"`
	Canonical string `gorm:"not null;index"`
}

func allModels() []any {
	return []any{
		&Symptom{},
		&Disease{},
		&DiseaseSymptom{},
		&Precaution{},
		&SeverityWeight{},
		&SymptomAlias{},
	}
}
