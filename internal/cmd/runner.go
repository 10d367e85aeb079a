package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/google/uuid"
	"github.com/hainenber/sieve/internal/config"
	"github.com/hainenber/sieve/internal/orchestrator"
	"github.com/hainenber/sieve/internal/output"
	"github.com/hainenber/sieve/internal/telemetry/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Runner performs one batch run: config, logger, metrics, sink and orchestrator
type Runner struct {
	ConfigFile         string
	ConfigFileRequired bool // Missing default config file falls back to defaults unless set
	LogLevel           string
	Inputs             []string
	OutputPath         string
	OutputFormat       string

	// Logger overrides the console logger, mainly for tests
	Logger *zerolog.Logger
}

func (r *Runner) newLogger() zerolog.Logger {
	logger := log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if r.Logger != nil {
		logger = *r.Logger
	}

	// Add a hook into main logger for registering internal error as metrics
	return logger.Hook(metrics.InternalErrorLoggerHook{}).
		With().
		Str("run_id", uuid.New().String()).
		Logger()
}

// loadConfig reads the config file then lets CLI values take precedence
func (r *Runner) loadConfig() (*config.Config, error) {
	conf, err := config.NewConfig(r.ConfigFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) || r.ConfigFileRequired {
			return nil, err
		}
		conf = config.DefaultConfig()
	}

	if len(r.Inputs) > 0 {
		conf.Input.Paths = r.Inputs
	}
	if r.OutputPath != "" {
		conf.Output.Path = r.OutputPath
	}
	if r.OutputFormat != "" {
		conf.Output.Format = r.OutputFormat
	}
	if r.LogLevel != "" {
		conf.LogLevel = r.LogLevel
	}

	if err = conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (r *Runner) Run(ctx context.Context) (summary orchestrator.Summary, err error) {
	logger := r.newLogger()

	conf, err := r.loadConfig()
	if err != nil {
		return summary, err
	}
	level, err := zerolog.ParseLevel(conf.LogLevel)
	if err != nil {
		return summary, err
	}
	logger = logger.Level(level)
	logger.Info().Msgf("Finish reading config %s", r.ConfigFile)

	// Metrics are pushed over OTLP only when asked to, meters stay no-op otherwise
	if conf.Metrics.Enabled {
		closeMeterFunc, err := metrics.InitiateMetricProvider(&logger)
		if err != nil {
			return summary, err
		}
		defer closeMeterFunc()
	}

	destination, err := output.OpenDestination(conf.Output.Path)
	if err != nil {
		return summary, err
	}
	sink, err := output.NewSink(conf.Output.Format, destination)
	if err != nil {
		destination.Close()
		return summary, err
	}
	defer func() {
		if closeErr := sink.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	mainOrchestrator, err := orchestrator.NewOrchestrator(orchestrator.OrchestratorOption{
		Logger: logger,
		Config: conf,
		Sink:   sink,
	})
	if err != nil {
		return summary, err
	}

	summary, err = mainOrchestrator.Run(ctx)
	if err != nil {
		return summary, err
	}
	logger.Info().Msgf("Structured data saved to %s", conf.Output.Path)

	return summary, nil
}
