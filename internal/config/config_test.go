package config

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func baseConfig() Config {
	return Config{
		DockerHost:    defaultDockerHost,
		PollInterval:  defaultPollInterval,
		APITimeout:    defaultAPITimeout,
		NotifyTimeout: defaultNotifyTimeout,
		LogLevel:      defaultLogLevel,
		LogFormat:     defaultLogFormat,
		IdentityMode:  defaultIdentity,
		Hostname:      "sentinel-test",
		Pushover:      PushoverConfig{APIURL: defaultPushoverAPIURL},
	}
}

func TestLoad_ValidationAndDefaults(t *testing.T) {
	unchanged := func(c Config) Config { return c }

	cases := []struct {
		name     string
		env      map[string]string
		wantWarn string
		want     func(Config) Config
	}{
		{
			name: "defaults applied",
			env:  map[string]string{},
			want: unchanged,
		},
		{
			name: "poll interval as integer seconds",
			env:  map[string]string{"CS_POLL_INTERVAL": "15"},
			want: func(c Config) Config {
				c.PollInterval = 15 * time.Second
				return c
			},
		},
		{
			name: "poll interval as duration",
			env:  map[string]string{"CS_POLL_INTERVAL": "2m"},
			want: func(c Config) Config {
				c.PollInterval = 2 * time.Minute
				return c
			},
		},
		{name: "malformed poll interval", env: map[string]string{"CS_POLL_INTERVAL": "abc"}, wantWarn: "CS_POLL_INTERVAL", want: unchanged},
		{name: "zero poll interval", env: map[string]string{"CS_POLL_INTERVAL": "0"}, wantWarn: "CS_POLL_INTERVAL", want: unchanged},
		{name: "negative poll interval", env: map[string]string{"CS_POLL_INTERVAL": "-5s"}, wantWarn: "CS_POLL_INTERVAL", want: unchanged},
		{name: "zero api timeout", env: map[string]string{"CS_API_TIMEOUT": "0s"}, wantWarn: "CS_API_TIMEOUT", want: unchanged},
		{name: "malformed notify timeout", env: map[string]string{"CS_NOTIFY_TIMEOUT": "soon"}, wantWarn: "CS_NOTIFY_TIMEOUT", want: unchanged},
		{name: "docker host without scheme", env: map[string]string{"CS_DOCKER_HOST": "/var/run/docker.sock"}, wantWarn: "CS_DOCKER_HOST", want: unchanged},
		{name: "unknown identity mode", env: map[string]string{"CS_IDENTITY": "label"}, wantWarn: "CS_IDENTITY", want: unchanged},
		{name: "unknown log format", env: map[string]string{"CS_LOG_FORMAT": "xml"}, wantWarn: "CS_LOG_FORMAT", want: unchanged},
		{name: "unknown log level", env: map[string]string{"CS_LOG_LEVEL": "verbose"}, wantWarn: "CS_LOG_LEVEL", want: unchanged},
		{name: "malformed pushover api", env: map[string]string{"CS_PUSHOVER_API": "not-a-url"}, wantWarn: "CS_PUSHOVER_API", want: unchanged},
		{name: "malformed slack webhook url disables slack", env: map[string]string{"CS_SLACK_WEBHOOK_URL": "not-a-url"}, wantWarn: "CS_SLACK_WEBHOOK_URL", want: unchanged},
		{name: "malformed webhook url disables webhook", env: map[string]string{"CS_WEBHOOK_URL": "example.com/hook"}, wantWarn: "CS_WEBHOOK_URL", want: unchanged},
		{name: "non-numeric health port", env: map[string]string{"CS_HEALTH_PORT": "http"}, wantWarn: "CS_HEALTH_PORT", want: unchanged},
		{name: "out of range metrics port", env: map[string]string{"CS_METRICS_PORT": "70000"}, wantWarn: "CS_METRICS_PORT", want: unchanged},
		{name: "malformed dry run", env: map[string]string{"CS_DRY_RUN": "maybe"}, wantWarn: "CS_DRY_RUN", want: unchanged},
		{
			name: "full notification settings",
			env: map[string]string{
				"CS_PUSHOVER_TOKEN":    " tok ",
				"CS_PUSHOVER_USER":     "usr",
				"CS_SLACK_WEBHOOK_URL": "https://hooks.slack.com/services/T00/B00/XXX",
				"CS_WEBHOOK_URL":       "https://example.com/hook",
				"CS_DRY_RUN":           "true",
			},
			want: func(c Config) Config {
				c.Pushover.Token = "tok"
				c.Pushover.User = "usr"
				c.SlackWebhookURL = "https://hooks.slack.com/services/T00/B00/XXX"
				c.WebhookURL = "https://example.com/hook"
				c.DryRun = true
				return c
			},
		},
		{
			name: "scoping and presentation",
			env: map[string]string{
				"CS_DOCKER_HOST":    "tcp://proxy:2375",
				"CS_IDENTITY":       "ID",
				"CS_LABEL_FILTER":   "sentinel.enable=true, team ,",
				"CS_TZ":             "Europe/Paris",
				"CS_LOG_LEVEL":      "debug",
				"CS_LOG_FORMAT":     "Console",
				"CS_HEALTH_PORT":    "8080",
				"CS_METRICS_PORT":   "9090",
				"CS_NOTIFY_TIMEOUT": "3",
			},
			want: func(c Config) Config {
				c.DockerHost = "tcp://proxy:2375"
				c.IdentityMode = "id"
				c.LabelFilters = []string{"sentinel.enable=true", "team"}
				c.Timezone = "Europe/Paris"
				c.LogLevel = "debug"
				c.LogFormat = "console"
				c.HealthPort = 8080
				c.MetricsPort = 9090
				c.NotifyTimeout = 3 * time.Second
				return c
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			restoreDir := mustChdir(t, tmpDir)
			defer restoreDir()

			t.Setenv("DOCKER_HOST", "")
			t.Setenv("CS_HOSTNAME", "sentinel-test")
			for key, value := range tc.env {
				t.Setenv(key, value)
			}

			got, warnings, err := Load()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			want := tc.want(baseConfig())
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("unexpected config:\n got  %+v\n want %+v", got, want)
			}

			if tc.wantWarn == "" {
				if len(warnings) != 0 {
					t.Fatalf("expected no warnings, got %v", warnings)
				}
				return
			}
			if len(warnings) != 1 || warnings[0].Key != tc.wantWarn {
				t.Fatalf("expected one warning for %s, got %v", tc.wantWarn, warnings)
			}
			if warnings[0].Value != tc.env[tc.wantWarn] {
				t.Fatalf("expected warning to carry the rejected value, got %+v", warnings[0])
			}
		})
	}
}

func TestLoad_SeveralMalformedValuesAllFallBack(t *testing.T) {
	restoreDir := mustChdir(t, t.TempDir())
	defer restoreDir()

	t.Setenv("DOCKER_HOST", "")
	t.Setenv("CS_HOSTNAME", "sentinel-test")
	t.Setenv("CS_POLL_INTERVAL", "abc")
	t.Setenv("CS_LOG_FORMAT", "xml")
	t.Setenv("CS_DRY_RUN", "maybe")
	t.Setenv("CS_HEALTH_PORT", "http")

	got, warnings, err := Load()
	if err != nil {
		t.Fatalf("malformed values must not fail the load: %v", err)
	}
	if got.PollInterval != 30*time.Second || got.LogFormat != "json" || got.DryRun || got.HealthPort != 0 {
		t.Fatalf("expected defaults, got %+v", got)
	}

	keys := make([]string, 0, len(warnings))
	for _, w := range warnings {
		keys = append(keys, w.Key)
	}
	wantKeys := []string{"CS_POLL_INTERVAL", "CS_LOG_FORMAT", "CS_DRY_RUN", "CS_HEALTH_PORT"}
	if !reflect.DeepEqual(keys, wantKeys) {
		t.Fatalf("expected warnings for %v, got %v", wantKeys, keys)
	}
	if got := warnings[0].String(); !strings.Contains(got, `"abc"`) || !strings.Contains(got, `using "30s"`) {
		t.Fatalf("unexpected warning text: %s", got)
	}
}

func TestLogWarnings(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	LogWarnings(logger, []Warning{{Key: "CS_LOG_FORMAT", Value: "xml", Default: "json", Reason: "must be one of json, console"}})

	out := buf.String()
	if strings.Count(out, `"level":"warn"`) != 1 {
		t.Fatalf("expected one warn line, got %s", out)
	}
	for _, want := range []string{`"key":"CS_LOG_FORMAT"`, `"value":"xml"`, `"default":"json"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
}

func TestLoad_FallsBackToDockerHostEnv(t *testing.T) {
	restoreDir := mustChdir(t, t.TempDir())
	defer restoreDir()

	t.Setenv("DOCKER_HOST", "tcp://remote:2376")

	got, _, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DockerHost != "tcp://remote:2376" {
		t.Fatalf("expected DOCKER_HOST fallback, got %s", got.DockerHost)
	}
}

func TestLoad_DotEnvAndEnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	restoreDir := mustChdir(t, tmpDir)
	defer restoreDir()

	dotenv := []byte(`
# example .env
CS_PUSHOVER_TOKEN=from-dotenv
CS_PUSHOVER_USER=dotenv-user
CS_DOCKER_HOST=tcp://dotenv:2375
`)

	if err := os.WriteFile(filepath.Join(tmpDir, ".env"), dotenv, 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	t.Setenv("CS_DOCKER_HOST", "tcp://env:2375")
	// Registered so t.Setenv restores them once godotenv has written them.
	t.Setenv("CS_PUSHOVER_TOKEN", "")
	t.Setenv("CS_PUSHOVER_USER", "")
	os.Unsetenv("CS_PUSHOVER_TOKEN")
	os.Unsetenv("CS_PUSHOVER_USER")

	got, _, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.DockerHost != "tcp://env:2375" {
		t.Fatalf("docker host did not prefer env: %s", got.DockerHost)
	}
	if got.Pushover.Token != "from-dotenv" || got.Pushover.User != "dotenv-user" {
		t.Fatalf("pushover credentials not loaded from .env: %+v", got.Pushover)
	}
	if !got.Pushover.Enabled() {
		t.Fatalf("expected pushover to be enabled")
	}
	if got.PollInterval != defaultPollInterval {
		t.Fatalf("unexpected poll interval: %s", got.PollInterval)
	}
}

func TestLoadWithFlags_FlagsOverrideEnv(t *testing.T) {
	restoreDir := mustChdir(t, t.TempDir())
	defer restoreDir()

	t.Setenv("CS_LOG_LEVEL", "warn")
	t.Setenv("CS_POLL_INTERVAL", "60")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse([]string{"--log-level=debug", "--dry-run"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	got, _, err := LoadWithFlags(fs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.LogLevel != "debug" {
		t.Fatalf("expected flag log level, got %s", got.LogLevel)
	}
	if !got.DryRun {
		t.Fatalf("expected dry run from flag")
	}
	if got.PollInterval != time.Minute {
		t.Fatalf("expected env poll interval when flag unset, got %s", got.PollInterval)
	}
}

func TestPushoverConfigEnabled(t *testing.T) {
	if (PushoverConfig{Token: "t"}).Enabled() {
		t.Fatalf("expected disabled without user")
	}
	if (PushoverConfig{User: "u"}).Enabled() {
		t.Fatalf("expected disabled without token")
	}
	if !(PushoverConfig{Token: "t", User: "u"}).Enabled() {
		t.Fatalf("expected enabled with token and user")
	}
}

func mustChdir(t *testing.T, dir string) func() {
	t.Helper()
	original, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	return func() {
		if err := os.Chdir(original); err != nil {
			t.Fatalf("restore dir: %v", err)
		}
	}
}
