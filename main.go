package main

import (
	"context"
	"fmt"
	"os"

	"github.com/nijaru/pitch-analyzer/client"
	"github.com/nijaru/pitch-analyzer/config"
	"github.com/nijaru/pitch-analyzer/coordinator"
	"github.com/nijaru/pitch-analyzer/db"
	"github.com/nijaru/pitch-analyzer/logger"
	"github.com/nijaru/pitch-analyzer/middleware"
	"github.com/nijaru/pitch-analyzer/models"
	"github.com/nijaru/pitch-analyzer/source"
	"github.com/nijaru/pitch-analyzer/validation"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	apiBase    string
)

// errSubmissionFailed marks a submission whose error has already been shown.
var errSubmissionFailed = errors.New("submission failed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if err != errSubmissionFailed {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pitchctl",
		Short:         "Submit startup pitches to the analysis backend",
		Long:          "pitchctl sends pitch transcripts, audio, text files, pitch decks and videos to the pitch analysis API and shows the result.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&apiBase, "api-base", "", "backend base URL (overrides API_BASE)")

	root.AddCommand(textCmd())
	root.AddCommand(audioCmd())
	root.AddCommand(textFileCmd())
	root.AddCommand(pdfCmd())
	root.AddCommand(videoCmd())
	root.AddCommand(tuiCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(stubCmd())
	return root
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if apiBase != "" {
		cfg.APIBase = apiBase
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// app holds the wired components shared by the subcommands.
type app struct {
	cfg      *config.Config
	logger   *logrus.Logger
	journal  *db.Journal
	client   *client.Client
	coord    *coordinator.Coordinator
	resolver *source.Resolver
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogDir)
	if err != nil {
		return nil, err
	}

	journal, err := db.Open(cfg.JournalDSN)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open journal")
	}

	cl := client.New(client.Config{
		BaseURL: cfg.APIBase,
		Timeout: cfg.RequestTimeout,
		Limiter: middleware.NewLimiter(cfg.RateLimit, cfg.RateLimitInterval),
	}, log)

	coord := coordinator.New(cl, coordinator.Options{
		RequestTimeout: cfg.RequestTimeout,
		RejectStale:    cfg.Coordinator.RejectStale,
		Validator:      validation.NewValidator(validation.Options{StrictVideoURL: cfg.Video.StrictURL}),
		Recorder:       journal,
		Logger:         log,
	})

	resolver := source.NewResolver(source.Config{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
	}, log)

	log.WithFields(logrus.Fields{
		"api_base":     cfg.APIBase,
		"reject_stale": cfg.Coordinator.RejectStale,
	}).Debug("Initialized")

	return &app{
		cfg:      cfg,
		logger:   log,
		journal:  journal,
		client:   cl,
		coord:    coord,
		resolver: resolver,
	}, nil
}

// Close releases the journal. Submissions still in flight are abandoned.
func (a *app) Close() {
	if err := a.journal.Close(); err != nil {
		a.logger.WithError(err).Error("Failed to close journal")
	}
}

func (a *app) resolve(ctx context.Context, ref string) (*models.Blob, error) {
	return a.resolver.Resolve(ctx, ref)
}
