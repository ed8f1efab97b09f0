package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"github.com/nholik/container-sentinel/internal/snapshot"
	"github.com/nholik/container-sentinel/internal/transition"
	"github.com/rs/zerolog"
)

const defaultWebhookTemplate = `{{ toJson . }}`

// WebhookPayload is the template context for webhook notifications.
type WebhookPayload struct {
	Title          string                    `json:"title"`
	Message        string                    `json:"message"`
	Identity       snapshot.Identity         `json:"container"`
	Classification transition.Classification `json:"classification"`
	Host           string                    `json:"host,omitempty"`
	OccurredAt     time.Time                 `json:"occurred_at"`
	GeneratedAt    time.Time                 `json:"generated_at"`
}

// WebhookNotifier sends events to a generic webhook.
type WebhookNotifier struct {
	logger   zerolog.Logger
	template *template.Template
	poster   *httpPoster
	now      func() time.Time
}

// NewWebhookNotifier creates a webhook notifier with the provided template.
// It returns nil when webhookURL is empty.
func NewWebhookNotifier(logger zerolog.Logger, webhookURL string, tmpl string, opts ...Option) (*WebhookNotifier, error) {
	if webhookURL == "" {
		return nil, nil
	}
	if tmpl == "" {
		tmpl = defaultWebhookTemplate
	}

	parsed, err := template.New("webhook").Funcs(template.FuncMap{
		"toJson": func(v any) (string, error) {
			encoded, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(encoded), nil
		},
	}).Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse webhook template: %w", err)
	}

	return &WebhookNotifier{
		logger:   logger,
		template: parsed,
		poster:   newHTTPPoster(logger, "webhook", webhookURL, "application/json", buildOptions(opts)),
		now:      time.Now,
	}, nil
}

// Send implements Notifier.
func (n *WebhookNotifier) Send(ctx context.Context, event Event) {
	if n == nil {
		return
	}

	payload := WebhookPayload{
		Title:          event.Title,
		Message:        event.Message,
		Identity:       event.Identity,
		Classification: event.Classification,
		Host:           event.Host,
		OccurredAt:     event.OccurredAt,
		GeneratedAt:    n.now().UTC(),
	}

	var buf bytes.Buffer
	if err := n.template.Execute(&buf, payload); err != nil {
		n.poster.fail(event, fmt.Errorf("render webhook template: %w", err)).Msg("notification delivery failed")
		return
	}

	if n.poster.deliver(ctx, event, buf.Bytes()) {
		n.logger.Debug().
			Str("container", string(event.Identity)).
			Str("classification", string(event.Classification)).
			Msg("webhook notification sent")
	}
}
