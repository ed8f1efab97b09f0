package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

// Slack caps header text at 150 characters and section text at 3000.
const (
	slackMaxHeader  = 150
	slackMaxSection = 3000
)

// SlackNotifier posts events to a Slack incoming webhook.
type SlackNotifier struct {
	logger zerolog.Logger
	poster *httpPoster
}

// NewSlackNotifier creates a Slack notifier or a noop notifier when the webhook is empty.
func NewSlackNotifier(logger zerolog.Logger, webhookURL string, opts ...Option) Notifier {
	if webhookURL == "" {
		return NewNoop(logger, "slack webhook not configured; slack disabled")
	}

	return &SlackNotifier{
		logger: logger,
		poster: newHTTPPoster(logger, "slack", webhookURL, "application/json", buildOptions(opts)),
	}
}

// Send implements Notifier.
func (n *SlackNotifier) Send(ctx context.Context, event Event) {
	payload, err := json.Marshal(buildSlackMessage(event))
	if err != nil {
		n.poster.fail(event, fmt.Errorf("marshal slack payload: %w", err)).Msg("notification delivery failed")
		return
	}

	if n.poster.deliver(ctx, event, payload) {
		n.logger.Debug().
			Str("container", string(event.Identity)).
			Str("classification", string(event.Classification)).
			Msg("slack notification sent")
	}
}

func buildSlackMessage(event Event) slack.WebhookMessage {
	header := slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", truncate(event.Title, slackMaxHeader), false, false))
	body := slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", truncate(event.Message, slackMaxSection), false, false), nil, nil)

	contextElements := []slack.MixedElement{
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("Container: *%s*", event.Identity), false, false),
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("Event: `%s`", event.Classification), false, false),
	}
	if event.Host != "" {
		contextElements = append(contextElements, slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("Host: %s", event.Host), false, false))
	}
	details := slack.NewContextBlock("", contextElements...)

	blockSet := slack.Blocks{BlockSet: []slack.Block{header, body, details}}
	return slack.WebhookMessage{
		Text:   event.Title,
		Blocks: &blockSet,
	}
}
