package pipeline

import (
	"context"
	"fmt"

	"github.com/ppiankov/medimatch/internal/dataset"
	"github.com/ppiankov/medimatch/internal/logging"
	"github.com/ppiankov/medimatch/internal/model"
	"github.com/ppiankov/medimatch/internal/store"
	"github.com/sirupsen/logrus"
)

// Knowledge source names reported by health checks
const (
	SourceSQLite = "sqlite"
	SourceDir    = "dir"
	SourceSample = "sample"
)

// LoadKnowledge builds the reference snapshot from the configured source:
// SQLite when data.db is set, then a CSV directory, then the embedded sample.
func LoadKnowledge(ctx context.Context, cfg model.DataConfig, logger logrus.FieldLogger) (*dataset.Knowledge, string, error) {
	logger = logging.OrDiscard(logger)

	var (
		tables dataset.Tables
		source string
		err    error
	)

	switch {
	case cfg.DB != "":
		source = SourceSQLite
		tables, err = loadSQLite(ctx, cfg.DB, logger)
	case cfg.Dir != "":
		source = SourceDir
		tables, err = dataset.LoadDir(cfg.Dir, logger)
	default:
		source = SourceSample
		tables, err = dataset.LoadFS(dataset.Sample(), logger)
	}
	if err != nil {
		return nil, "", fmt.Errorf("load %s tables: %w", source, err)
	}

	k, err := dataset.Build(tables, logger.WithField("source", source))
	if err != nil {
		return nil, "", fmt.Errorf("validate %s tables: %w", source, err)
	}
	return k, source, nil
}

func loadSQLite(ctx context.Context, path string, logger logrus.FieldLogger) (dataset.Tables, error) {
	database, err := store.OpenSQLite(path, logger)
	if err != nil {
		return dataset.Tables{}, err
	}
	defer func() { _ = store.Close(database) }()

	return store.NewRepository(database).Load(ctx)
}
