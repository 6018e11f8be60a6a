package dataset

import (
	"embed"
	"io/fs"

	"github.com/sirupsen/logrus"
)

//go:embed sample/*.csv sample/synonyms.json
var sampleFiles embed.FS

// Sample returns the embedded sample dataset
func Sample() fs.FS {
	sub, err := fs.Sub(sampleFiles, "sample")
	if err != nil {
		panic(err) // embedded layout is fixed at compile time
	}
	return sub
}

// LoadSample loads and validates the embedded sample dataset
func LoadSample(logger logrus.FieldLogger) (*Knowledge, error) {
	t, err := LoadFS(Sample(), logger)
	if err != nil {
		return nil, err
	}
	return Build(t, logger)
}
