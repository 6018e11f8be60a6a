package cli

import (
	"fmt"
	"path/filepath"

	"github.com/ppiankov/medimatch/internal/dataset"
	"github.com/ppiankov/medimatch/internal/store"
	"github.com/spf13/cobra"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <dataset-dir>",
	Short: "Validate a CSV dataset and store it in SQLite",
	Long: `Import reads a CSV dataset directory, validates it like any other load and
replaces the reference tables in the SQLite database given by --db (or
data.db). Later runs with the same --db read the imported data.

Expected files:
  training.csv      disease column (prognosis) plus one 0/1 column per symptom
  severity.csv      symptom,weight            (optional)
  description.csv   disease,description       (optional)
  precaution.csv    disease,p1,p2,...         (optional)
  synonyms.json     {"canonical": ["alias"]}  (optional, .yaml also accepted)

Example:
  medimatch import ./data --db ~/.medimatch/medimatch.db`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}

		dbPath := cfg.Data.DB
		if dbPath == "" {
			dir, err := configDir()
			if err != nil {
				return fmt.Errorf("error finding home directory: %w", err)
			}
			dbPath = filepath.Join(dir, "medimatch.db")
		}

		tables, err := dataset.LoadDir(args[0], logger)
		if err != nil {
			return err
		}
		k, err := dataset.Build(tables, logger)
		if err != nil {
			return fmt.Errorf("dataset is invalid, nothing imported: %w", err)
		}

		database, err := store.OpenSQLite(dbPath, logger)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close(database) }()

		if err := store.NewRepository(database).Replace(cmd.Context(), tables); err != nil {
			return fmt.Errorf("import: %w", err)
		}

		stats := k.Stats()
		fmt.Printf("✓ Imported %d diseases, %d symptoms, %d aliases into %s\n",
			stats.Diseases, stats.Symptoms, stats.Aliases, dbPath)
		if cfg.Data.DB == "" {
			fmt.Printf("\nTo use it, pass --db %s or set data.db in the config file.\n", dbPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
