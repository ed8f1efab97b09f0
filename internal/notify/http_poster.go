package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const httpErrorBodyLimit = 1024

type timingConfig struct {
	timeout      time.Duration
	rateInterval time.Duration
	rateBurst    int
}

var defaultTiming = timingConfig{
	timeout:      10 * time.Second,
	rateInterval: 200 * time.Millisecond,
	rateBurst:    5,
}

type options struct {
	timing   timingConfig
	failures FailureRecorder
}

// Option customizes the HTTP backed notifiers.
type Option func(*options)

// WithTimeout bounds each delivery request.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.timing.timeout = timeout
		}
	}
}

// WithRateLimit paces deliveries to one per interval with the given burst.
func WithRateLimit(interval time.Duration, burst int) Option {
	return func(o *options) {
		o.timing.rateInterval = interval
		o.timing.rateBurst = burst
	}
}

// WithFailureRecorder counts failed deliveries.
func WithFailureRecorder(recorder FailureRecorder) Option {
	return func(o *options) {
		o.failures = recorder
	}
}

func buildOptions(opts []Option) options {
	o := options{timing: defaultTiming}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// httpPoster sends one request per delivery. Failed deliveries are logged
// and counted, never retried.
type httpPoster struct {
	logger      zerolog.Logger
	backend     string
	endpoint    string
	contentType string
	client      *retryablehttp.Client
	timing      timingConfig
	limiter     *rate.Limiter
	failures    FailureRecorder
}

func newHTTPPoster(logger zerolog.Logger, backend, endpoint, contentType string, opts options) *httpPoster {
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.CheckRetry = func(_ context.Context, _ *http.Response, _ error) (bool, error) {
		return false, nil
	}
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = nil
	client.HTTPClient = &http.Client{
		Timeout: opts.timing.timeout,
		// A redirect counts as a failed delivery.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	var limiter *rate.Limiter
	if opts.timing.rateInterval > 0 && opts.timing.rateBurst > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.timing.rateInterval), opts.timing.rateBurst)
	}

	return &httpPoster{
		logger:      logger.With().Str("backend", backend).Logger(),
		backend:     backend,
		endpoint:    endpoint,
		contentType: contentType,
		client:      client,
		timing:      opts.timing,
		limiter:     limiter,
		failures:    opts.failures,
	}
}

// deliver posts payload once and reports whether it was accepted.
func (p *httpPoster) deliver(ctx context.Context, event Event, payload []byte) bool {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			p.fail(event, err).Msg("notification dropped by rate limiter")
			return false
		}
	}

	if err := p.postOnce(ctx, payload); err != nil {
		p.fail(event, err).Msg("notification delivery failed")
		return false
	}
	return true
}

func (p *httpPoster) fail(event Event, err error) *zerolog.Event {
	if p.failures != nil {
		p.failures.IncNotificationFailures(p.backend)
	}
	entry := p.logger.Warn().
		Err(err).
		Str("container", string(event.Identity)).
		Str("classification", string(event.Classification))
	var se *statusError
	if errors.As(err, &se) {
		entry = entry.Int("status", se.StatusCode)
		if se.RetryAfter > 0 {
			entry = entry.Dur("retry_after", se.RetryAfter)
		}
	}
	return entry
}

func (p *httpPoster) postOnce(ctx context.Context, payload []byte) error {
	reqCtx, cancel := context.WithTimeout(ctx, p.timing.timeout)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(reqCtx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", p.backend, err)
	}
	req.Header.Set("Content-Type", p.contentType)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", p.backend, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, httpErrorBodyLimit))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	se := &statusError{
		backend:    p.backend,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		se.RetryAfter, _ = parseRetryAfter(resp.Header.Get("Retry-After"))
	}
	return se
}

// statusError is a response with status 300 or above.
type statusError struct {
	backend    string
	StatusCode int
	Status     string
	Body       string
	RetryAfter time.Duration
}

func (e *statusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s request failed: %s (%s)", e.backend, e.Status, e.Body)
	}
	return fmt.Sprintf("%s request failed: %s", e.backend, e.Status)
}

// parseRetryAfter reads a Retry-After header as seconds or an HTTP date.
// The value is only reported; deliveries are never retried.
func parseRetryAfter(value string) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds <= 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		wait := time.Until(when)
		if wait <= 0 {
			return 0, false
		}
		return wait, true
	}
	return 0, false
}
