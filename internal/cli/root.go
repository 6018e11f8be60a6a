package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/medimatch/internal/logging"
	"github.com/ppiankov/medimatch/internal/model"
	"github.com/ppiankov/medimatch/internal/pipeline"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden at build time with -ldflags "-X ...cli.version=..."
var version = "v0.3.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "medimatch",
	Short: "medimatch - transparent symptom-to-condition matching (informational only)",
	Long: `medimatch matches free-text symptom lists against a reference table of
disease profiles and reports the best-matching condition.

Every score is a severity-weighted share of a profile's symptoms, so each
result can be explained line by line. When no profile clears the confidence
threshold the answer is "Unknown Condition".

medimatch is not a medical device and does not give medical advice.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of medimatch.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("medimatch %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.medimatch/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.String("data-dir", "", "CSV dataset directory (default: embedded sample)")
	flags.String("db", "", "SQLite database with imported reference tables")
	flags.Float64("threshold", model.DefaultConfidenceThreshold, "minimum confidence for a diagnosis, in [0,1]")
	flags.String("delimiter", model.DefaultSymptomDelimiter, "symptom delimiter")
	flags.Bool("no-cache", false, "disable the result cache")

	bindPersistentFlags()

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// bindPersistentFlags binds the global flags to their config keys
func bindPersistentFlags() {
	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("data.dir", flags.Lookup("data-dir"))
	_ = viper.BindPFlag("data.db", flags.Lookup("db"))
	_ = viper.BindPFlag("engine.confidence_threshold", flags.Lookup("threshold"))
	_ = viper.BindPFlag("normalizer.symptom_delimiter", flags.Lookup("delimiter"))
}

// configDir returns $HOME/.medimatch
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".medimatch"), nil
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(model.DefaultConfig())

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(dir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match MEDIMATCH_*
	viper.SetEnvPrefix("MEDIMATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key so env vars and config files can override it
func setDefaults(cfg *model.Config) {
	viper.SetDefault("engine.confidence_threshold", cfg.Engine.ConfidenceThreshold)
	viper.SetDefault("engine.default_severity_weight", cfg.Engine.DefaultSeverityWeight)
	viper.SetDefault("engine.max_missing", cfg.Engine.MaxMissing)
	viper.SetDefault("normalizer.symptom_delimiter", cfg.Normalizer.SymptomDelimiter)
	viper.SetDefault("data.dir", cfg.Data.Dir)
	viper.SetDefault("data.db", cfg.Data.DB)
	viper.SetDefault("cache.enabled", cfg.Cache.Enabled)
	viper.SetDefault("cache.ttl", cfg.Cache.TTL)
	viper.SetDefault("cache.dir", cfg.Cache.Dir)
	viper.SetDefault("server.addr", cfg.Server.Addr)
	viper.SetDefault("server.requests_per_second", cfg.Server.RequestsPerSecond)
	viper.SetDefault("server.burst", cfg.Server.Burst)
	viper.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)
	viper.SetDefault("concurrency.workers", cfg.Concurrency.Workers)
	viper.SetDefault("log.level", cfg.Log.Level)
	viper.SetDefault("log.format", cfg.Log.Format)
}

// loadConfig returns the effective configuration: defaults, config file,
// environment and flags, in rising priority
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if noCache, _ := rootCmd.PersistentFlags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds the stderr logger for cfg
func newLogger(cfg *model.Config) (*logrus.Logger, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	return logger, nil
}

// buildPipeline loads reference data and wires the pipeline for cfg
func buildPipeline(ctx context.Context, cfg *model.Config, logger logrus.FieldLogger) (*pipeline.Pipeline, error) {
	k, source, err := pipeline.LoadKnowledge(ctx, cfg.Data, logger)
	if err != nil {
		return nil, err
	}
	return pipeline.NewPipeline(cfg, k, source, logger)
}

// setup is the common preamble of commands that query the pipeline
func setup(ctx context.Context) (*model.Config, *logrus.Logger, *pipeline.Pipeline, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	p, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, p, nil
}

// addFormatFlag registers the shared --format flag
func addFormatFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "format", "f", "text", "output format (text, markdown, json)")
}

// newRenderer parses the --format value
func newRenderer(format string) (*pipeline.Renderer, error) {
	f, err := pipeline.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRenderer(f), nil
}
