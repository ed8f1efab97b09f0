package app

import (
	"context"
	"fmt"

	"github.com/nholik/container-sentinel/internal/config"
	"github.com/nholik/container-sentinel/internal/engine"
	"github.com/nholik/container-sentinel/internal/healthcheck"
	"github.com/nholik/container-sentinel/internal/metrics"
	"github.com/nholik/container-sentinel/internal/notify"
	"github.com/nholik/container-sentinel/internal/runner"
	"github.com/nholik/container-sentinel/internal/server"
	"github.com/nholik/container-sentinel/internal/timezone"
	"github.com/rs/zerolog"
)

// EngineFactory builds the engine client from configuration.
type EngineFactory func(cfg config.Config) (engine.Client, error)

// App owns the engine connection and the poll loop.
type App struct {
	cfg     config.Config
	logger  zerolog.Logger
	engine  engine.Client
	runner  *runner.Runner
	metrics *metrics.Metrics
	tracker *healthcheck.Tracker
}

type options struct {
	engineFactory EngineFactory
	runnerOpts    []runner.Option
}

// Option customizes App construction.
type Option func(*options)

// WithEngineFactory replaces the Docker engine client.
func WithEngineFactory(factory EngineFactory) Option {
	return func(o *options) {
		if factory != nil {
			o.engineFactory = factory
		}
	}
}

// WithRunnerOptions passes extra options to the poll loop.
func WithRunnerOptions(opts ...runner.Option) Option {
	return func(o *options) {
		o.runnerOpts = append(o.runnerOpts, opts...)
	}
}

func dockerEngine(cfg config.Config) (engine.Client, error) {
	return engine.NewDockerClient(cfg.DockerHost, cfg.APITimeout,
		engine.WithIdentityMode(engine.IdentityMode(cfg.IdentityMode)),
		engine.WithLabelFilters(cfg.LabelFilters),
	)
}

// New creates a new App by wiring up all dependencies. The engine must be
// reachable: a construction or ping failure is returned and nothing runs.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger, opts ...Option) (*App, error) {
	o := options{engineFactory: dockerEngine}
	for _, opt := range opts {
		opt(&o)
	}

	client, err := o.engineFactory(cfg)
	if err != nil {
		return nil, fmt.Errorf("create engine client for %s: %w", cfg.DockerHost, err)
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to engine at %s: %w", cfg.DockerHost, err)
	}

	m := metrics.New()
	tracker := healthcheck.NewTracker()

	notifier, err := buildNotifier(cfg, logger, m)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	dispatcher := notify.NewDispatcher(notifier, logger,
		notify.WithLocation(timezone.LoadOrUTC(logger, cfg.Timezone)),
		notify.WithHost(cfg.Hostname),
		notify.WithAlertRecorder(m),
	)

	runnerOpts := append([]runner.Option{
		runner.WithInventory(client),
		runner.WithDispatcher(dispatcher),
		runner.WithMetrics(m),
		runner.WithTracker(tracker),
	}, o.runnerOpts...)

	return &App{
		cfg:     cfg,
		logger:  logger,
		engine:  client,
		runner:  runner.New(logger, cfg.PollInterval, runnerOpts...),
		metrics: m,
		tracker: tracker,
	}, nil
}

// Run serves the health and metrics endpoints and blocks in the poll loop
// until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	_, err := server.Start(ctx, a.logger, server.Options{
		HealthPort:   a.cfg.HealthPort,
		MetricsPort:  a.cfg.MetricsPort,
		PollInterval: a.cfg.PollInterval,
	}, a.tracker, a.metrics)
	if err != nil {
		return err
	}

	a.logger.Info().
		Str("docker_host", a.cfg.DockerHost).
		Dur("poll_interval", a.cfg.PollInterval).
		Str("identity", a.cfg.IdentityMode).
		Strs("label_filters", a.cfg.LabelFilters).
		Bool("dry_run", a.cfg.DryRun).
		Msg("container-sentinel starting")

	return a.runner.Run(ctx)
}

// Close releases the engine connection.
func (a *App) Close() error {
	if a.engine == nil {
		return nil
	}
	if err := a.engine.Close(); err != nil {
		return fmt.Errorf("close engine client: %w", err)
	}
	return nil
}

func buildNotifier(cfg config.Config, logger zerolog.Logger, failures notify.FailureRecorder) (notify.Notifier, error) {
	opts := []notify.Option{
		notify.WithTimeout(cfg.NotifyTimeout),
		notify.WithFailureRecorder(failures),
	}

	backends := []notify.Notifier{
		notify.NewPushoverNotifier(logger, cfg.Pushover.Token, cfg.Pushover.User, cfg.Pushover.APIURL, opts...),
	}
	if cfg.SlackWebhookURL != "" {
		backends = append(backends, notify.NewSlackNotifier(logger, cfg.SlackWebhookURL, opts...))
	}

	webhook, err := notify.NewWebhookNotifier(logger, cfg.WebhookURL, cfg.WebhookTemplate, opts...)
	if err != nil {
		return nil, err
	}
	if webhook != nil {
		backends = append(backends, webhook)
	}

	multi := notify.NewMultiNotifier(backends...)
	if cfg.DryRun {
		return notify.NewDryRunNotifier(logger, multi), nil
	}
	return multi, nil
}
