package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/ppiankov/medimatch/internal/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the diagnosis API over HTTP",
	Long: `Serve exposes the pipeline as a JSON API:

  POST /api/v1/diagnose         {"symptoms": "fever, cough", "top": 3}
  GET  /api/v1/diseases
  GET  /api/v1/diseases/:name
  GET  /healthz

Requests are rate limited per client IP. When a config file is in use it is
watched, and edits to engine, normalizer or data settings are applied without
a restart. SIGINT or SIGTERM shuts the server down gracefully.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().Float64("rps", 10, "requests per second allowed per client IP (0 disables limiting)")
	serveCmd.Flags().Int("burst", 20, "rate limiter burst size")

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.requests_per_second", serveCmd.Flags().Lookup("rps"))
	_ = viper.BindPFlag("server.burst", serveCmd.Flags().Lookup("burst"))
}

func runServe(cmd *cobra.Command, args []string) error {
	sigCtx, stopSignals := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	cfg, logger, p, err := setup(sigCtx)
	if err != nil {
		return err
	}

	srv := server.New(p, cfg.Server, logger)

	if viper.ConfigFileUsed() != "" {
		watchConfig(sigCtx, srv, logger)
	}

	return srv.Run(sigCtx)
}

// watchConfig rebuilds the pipeline whenever the config file changes. A
// broken edit keeps the previous pipeline serving.
func watchConfig(ctx context.Context, srv *server.Server, logger logrus.FieldLogger) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		log := logger.WithField("file", e.Name)

		cfg, err := loadConfig()
		if err != nil {
			log.WithError(err).Warn("Ignoring config change")
			return
		}
		p, err := buildPipeline(ctx, cfg, logger)
		if err != nil {
			log.WithError(err).Warn("Ignoring config change")
			return
		}

		srv.SetPipeline(p)
		log.WithField("threshold", cfg.Engine.ConfidenceThreshold).Info("Configuration reloaded")
	})
	viper.WatchConfig()
	logger.WithField("file", viper.ConfigFileUsed()).Debug("Watching config file for changes")
}
