package notify

import (
	"context"
	"net/url"

	"github.com/rs/zerolog"
)

// Pushover rejects titles and messages over these lengths.
const (
	pushoverMaxTitle   = 250
	pushoverMaxMessage = 1024
)

// PushoverNotifier posts events to the Pushover messages API.
type PushoverNotifier struct {
	logger zerolog.Logger
	token  string
	user   string
	poster *httpPoster
}

// NewPushoverNotifier creates a Pushover notifier, or a noop notifier when
// token or user is empty so that no connection is ever opened.
func NewPushoverNotifier(logger zerolog.Logger, token, user, apiURL string, opts ...Option) Notifier {
	if token == "" || user == "" {
		return NewNoop(logger, "pushover token or user not configured; pushover disabled")
	}

	return &PushoverNotifier{
		logger: logger,
		token:  token,
		user:   user,
		poster: newHTTPPoster(logger, "pushover", apiURL, "application/x-www-form-urlencoded", buildOptions(opts)),
	}
}

// Send implements Notifier.
func (n *PushoverNotifier) Send(ctx context.Context, event Event) {
	form := url.Values{}
	form.Set("token", n.token)
	form.Set("user", n.user)
	form.Set("title", truncate(event.Title, pushoverMaxTitle))
	form.Set("message", truncate(event.Message, pushoverMaxMessage))

	if n.poster.deliver(ctx, event, []byte(form.Encode())) {
		n.logger.Debug().
			Str("container", string(event.Identity)).
			Str("classification", string(event.Classification)).
			Msg("pushover notification sent")
	}
}
