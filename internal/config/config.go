package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nholik/container-sentinel/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "CS"

const (
	keyDockerHost      = "docker_host"
	keyPollInterval    = "poll_interval"
	keyAPITimeout      = "api_timeout"
	keyNotifyTimeout   = "notify_timeout"
	keyLogLevel        = "log_level"
	keyLogFormat       = "log_format"
	keyTimezone        = "tz"
	keyIdentity        = "identity"
	keyLabelFilter     = "label_filter"
	keyHostname        = "hostname"
	keyPushoverToken   = "pushover_token"
	keyPushoverUser    = "pushover_user"
	keyPushoverAPI     = "pushover_api"
	keySlackWebhookURL = "slack_webhook_url"
	keyWebhookURL      = "webhook_url"
	keyWebhookTemplate = "webhook_template"
	keyDryRun          = "dry_run"
	keyHealthPort      = "health_port"
	keyMetricsPort     = "metrics_port"
)

const (
	defaultPollInterval   = 30 * time.Second
	defaultAPITimeout     = 10 * time.Second
	defaultNotifyTimeout  = 10 * time.Second
	defaultDockerHost     = "unix:///var/run/docker.sock"
	defaultPushoverAPIURL = "https://api.pushover.net/1/messages.json"
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
	defaultIdentity       = "name"
)

// PushoverConfig holds push delivery credentials. Delivery is disabled unless
// both Token and User are set.
type PushoverConfig struct {
	Token  string
	User   string
	APIURL string
}

// Enabled reports whether credentials are complete.
func (p PushoverConfig) Enabled() bool {
	return p.Token != "" && p.User != ""
}

// Config describes runtime configuration loaded from the environment.
type Config struct {
	DockerHost      string
	PollInterval    time.Duration
	APITimeout      time.Duration
	NotifyTimeout   time.Duration
	LogLevel        string
	LogFormat       string
	Timezone        string
	IdentityMode    string
	LabelFilters    []string
	Hostname        string
	Pushover        PushoverConfig
	SlackWebhookURL string
	WebhookURL      string
	WebhookTemplate string
	DryRun          bool
	HealthPort      int
	MetricsPort     int
}

// RegisterFlags defines the command-line overrides understood by LoadWithFlags.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("docker-host", "", "container engine endpoint (env CS_DOCKER_HOST)")
	fs.String("poll-interval", "", "seconds or duration between polls (env CS_POLL_INTERVAL)")
	fs.String("log-level", "", "log level: trace, debug, info, warn, error (env CS_LOG_LEVEL)")
	fs.String("log-format", "", "log format: json or console (env CS_LOG_FORMAT)")
	fs.Bool("dry-run", false, "log notifications instead of sending them (env CS_DRY_RUN)")
}

var flagKeys = map[string]string{
	"docker-host":   keyDockerHost,
	"poll-interval": keyPollInterval,
	"log-level":     keyLogLevel,
	"log-format":    keyLogFormat,
	"dry-run":       keyDryRun,
}

// Warning records a configuration value that was rejected in favor of a default.
type Warning struct {
	Key     string
	Value   string
	Default string
	Reason  string
}

func (w Warning) String() string {
	return fmt.Sprintf("invalid %s %q: %s; using %q", w.Key, w.Value, w.Reason, w.Default)
}

// LogWarnings reports every rejected value once the logger exists.
func LogWarnings(logger zerolog.Logger, warnings []Warning) {
	for _, w := range warnings {
		logger.Warn().
			Str("key", w.Key).
			Str("value", w.Value).
			Str("default", w.Default).
			Str("reason", w.Reason).
			Msg("invalid configuration value; using default")
	}
}

// Load reads configuration from environment variables and a local .env file if present.
// Existing environment variables take precedence over values in .env. Malformed
// values never fail the load: each one falls back to its default and is reported
// as a Warning.
func Load() (Config, []Warning, error) {
	return LoadWithFlags(nil)
}

// LoadWithFlags is Load with command-line overrides; a flag wins over the
// environment only when it was set explicitly.
func LoadWithFlags(flags *pflag.FlagSet) (Config, []Warning, error) {
	var warnings []Warning
	if err := loadDotEnvIfPresent(".env"); err != nil {
		warnings = append(warnings, Warning{Key: ".env", Default: "environment only", Reason: err.Error()})
	}

	l := &loader{v: newViper(), warnings: warnings}

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := l.v.BindPFlag(key, flag); err != nil {
				return Config{}, nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	cfg := Config{
		DockerHost:      l.dockerHost(),
		PollInterval:    l.interval(keyPollInterval, defaultPollInterval),
		APITimeout:      l.interval(keyAPITimeout, defaultAPITimeout),
		NotifyTimeout:   l.interval(keyNotifyTimeout, defaultNotifyTimeout),
		LogLevel:        l.logLevel(),
		LogFormat:       l.oneOf(keyLogFormat, defaultLogFormat, "json", "console"),
		Timezone:        trimmed(l.v, keyTimezone),
		IdentityMode:    l.oneOf(keyIdentity, defaultIdentity, "name", "id"),
		LabelFilters:    splitList(trimmed(l.v, keyLabelFilter)),
		Hostname:        trimmed(l.v, keyHostname),
		SlackWebhookURL: l.url(keySlackWebhookURL, ""),
		WebhookURL:      l.url(keyWebhookURL, ""),
		WebhookTemplate: l.v.GetString(keyWebhookTemplate),
		Pushover: PushoverConfig{
			Token:  trimmed(l.v, keyPushoverToken),
			User:   trimmed(l.v, keyPushoverUser),
			APIURL: l.url(keyPushoverAPI, defaultPushoverAPIURL),
		},
		DryRun:      l.boolean(keyDryRun),
		HealthPort:  l.port(keyHealthPort),
		MetricsPort: l.port(keyMetricsPort),
	}

	if cfg.Hostname == "" {
		if hostname, err := os.Hostname(); err == nil {
			cfg.Hostname = hostname
		}
	}

	return cfg, l.warnings, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault(keyDockerHost, fallbackDockerHost())
	v.SetDefault(keyPollInterval, defaultPollInterval.String())
	v.SetDefault(keyAPITimeout, defaultAPITimeout.String())
	v.SetDefault(keyNotifyTimeout, defaultNotifyTimeout.String())
	v.SetDefault(keyLogLevel, defaultLogLevel)
	v.SetDefault(keyLogFormat, defaultLogFormat)
	v.SetDefault(keyIdentity, defaultIdentity)
	v.SetDefault(keyPushoverAPI, defaultPushoverAPIURL)
	v.SetDefault(keyDryRun, "false")
	v.SetDefault(keyHealthPort, "0")
	v.SetDefault(keyMetricsPort, "0")
	return v
}

func fallbackDockerHost() string {
	if fromEnv := strings.TrimSpace(os.Getenv("DOCKER_HOST")); strings.Contains(fromEnv, "://") {
		return fromEnv
	}
	return defaultDockerHost
}

// loader reads keys from viper and replaces malformed values with defaults.
type loader struct {
	v        *viper.Viper
	warnings []Warning
}

func (l *loader) warn(key, value, fallback string, reason error) {
	l.warnings = append(l.warnings, Warning{
		Key:     envName(key),
		Value:   value,
		Default: fallback,
		Reason:  reason.Error(),
	})
}

func (l *loader) dockerHost() string {
	value := trimmed(l.v, keyDockerHost)
	if !strings.Contains(value, "://") {
		fallback := fallbackDockerHost()
		l.warn(keyDockerHost, value, fallback, errors.New("must include a scheme such as unix:// or tcp://"))
		return fallback
	}
	return value
}

func (l *loader) interval(key string, fallback time.Duration) time.Duration {
	value := trimmed(l.v, key)
	interval, err := parseInterval(value)
	if err != nil {
		l.warn(key, value, fallback.String(), err)
		return fallback
	}
	return interval
}

func (l *loader) logLevel() string {
	value := trimmed(l.v, keyLogLevel)
	if !logging.ValidLevel(value) {
		l.warn(keyLogLevel, value, defaultLogLevel, errors.New("must be trace, debug, info, warn, error, fatal or panic"))
		return defaultLogLevel
	}
	return value
}

func (l *loader) oneOf(key, fallback string, allowed ...string) string {
	value := strings.ToLower(trimmed(l.v, key))
	for _, candidate := range allowed {
		if value == candidate {
			return value
		}
	}
	l.warn(key, value, fallback, fmt.Errorf("must be one of %s", strings.Join(allowed, ", ")))
	return fallback
}

// url returns fallback for a malformed value; an empty fallback disables the backend.
func (l *loader) url(key, fallback string) string {
	value := trimmed(l.v, key)
	if value == "" {
		return fallback
	}
	if err := validateURL(value); err != nil {
		l.warn(key, value, fallback, err)
		return fallback
	}
	return value
}

func (l *loader) boolean(key string) bool {
	value := trimmed(l.v, key)
	if value == "" {
		return false
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		l.warn(key, value, "false", err)
		return false
	}
	return parsed
}

func (l *loader) port(key string) int {
	value := trimmed(l.v, key)
	if value == "" {
		return 0
	}
	port, err := strconv.Atoi(value)
	if err == nil && (port < 0 || port > 65535) {
		err = errors.New("must be between 0 and 65535")
	}
	if err != nil {
		l.warn(key, value, "0", err)
		return 0
	}
	return port
}

func trimmed(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(key)
}

// parseInterval accepts a positive integer number of seconds or a Go duration.
func parseInterval(value string) (time.Duration, error) {
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds <= 0 {
			return 0, errors.New("must be greater than zero")
		}
		return time.Duration(seconds) * time.Second, nil
	}
	interval, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if interval <= 0 {
		return 0, errors.New("must be greater than zero")
	}
	return interval, nil
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func loadDotEnvIfPresent(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return nil
	}

	return err
}

func validateURL(value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return errors.New("must include scheme and host")
	}
	return nil
}
