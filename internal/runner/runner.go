package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/nholik/container-sentinel/internal/engine"
	"github.com/nholik/container-sentinel/internal/healthcheck"
	"github.com/nholik/container-sentinel/internal/metrics"
	"github.com/nholik/container-sentinel/internal/notify"
	"github.com/nholik/container-sentinel/internal/snapshot"
	"github.com/nholik/container-sentinel/internal/state"
	"github.com/nholik/container-sentinel/internal/transition"
	"github.com/nrednav/cuid2"
	"github.com/rs/zerolog"
)

// Ticker is the minimal interface needed for driving the runner loop.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	ticker *time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t timeTicker) Stop() {
	t.ticker.Stop()
}

// Inventory lists the containers currently known to the engine.
type Inventory interface {
	ListContainers(ctx context.Context) ([]snapshot.Snapshot, error)
}

// Dispatcher delivers one alerting transition.
type Dispatcher interface {
	Dispatch(ctx context.Context, change transition.Transition)
}

// Cycle carries the identifiers of one poll cycle. Identity is updated
// while transitions are dispatched so a failure can name the container.
type Cycle struct {
	ID       string
	At       time.Time
	Identity snapshot.Identity
	Logger   zerolog.Logger
}

// Runner orchestrates the main execution loop.
type Runner struct {
	logger        zerolog.Logger
	pollInterval  time.Duration
	tickerFactory func(time.Duration) Ticker
	runOnce       func(context.Context, *Cycle) error
	inventory     Inventory
	store         state.Store
	dispatcher    Dispatcher
	metrics       *metrics.Metrics
	tracker       *healthcheck.Tracker
	now           func() time.Time
	newID         func() string
}

// Option customizes runner behavior.
type Option func(*Runner)

// WithTickerFactory overrides how tickers are created.
func WithTickerFactory(factory func(time.Duration) Ticker) Option {
	return func(r *Runner) {
		r.tickerFactory = factory
	}
}

// WithRunOnce overrides the single-cycle execution step.
func WithRunOnce(runOnce func(context.Context, *Cycle) error) Option {
	return func(r *Runner) {
		r.runOnce = runOnce
	}
}

// WithInventory sets the container source used by the default cycle.
func WithInventory(inventory Inventory) Option {
	return func(r *Runner) {
		r.inventory = inventory
	}
}

// WithStateStore replaces the in-memory store created by New.
func WithStateStore(store state.Store) Option {
	return func(r *Runner) {
		if store != nil {
			r.store = store
		}
	}
}

// WithDispatcher sets where alerting transitions are sent.
func WithDispatcher(dispatcher Dispatcher) Option {
	return func(r *Runner) {
		if dispatcher != nil {
			r.dispatcher = dispatcher
		}
	}
}

// WithMetrics records cycle metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithTracker records cycle outcomes for health endpoints.
func WithTracker(tracker *healthcheck.Tracker) Option {
	return func(r *Runner) {
		r.tracker = tracker
	}
}

// WithClock overrides the time source for cycle timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator overrides how cycle ids are generated.
func WithIDGenerator(newID func() string) Option {
	return func(r *Runner) {
		if newID != nil {
			r.newID = newID
		}
	}
}

// New constructs a Runner with the given logger and poll interval.
func New(logger zerolog.Logger, pollInterval time.Duration, opts ...Option) *Runner {
	r := &Runner{
		logger:       logger,
		pollInterval: pollInterval,
		tickerFactory: func(d time.Duration) Ticker {
			return timeTicker{ticker: time.NewTicker(d)}
		},
		store: state.NewMemoryStore(),
		now:   time.Now,
		newID: cuid2.Generate,
	}
	r.runOnce = r.defaultRunOnce

	for _, opt := range opts {
		opt(r)
	}
	if r.dispatcher == nil {
		r.dispatcher = notify.NewDispatcher(nil, logger)
	}

	return r
}

// Run starts the main loop and blocks until the context is canceled.
// The first cycle runs immediately. Cancellation is observed between
// cycles only; a cycle in flight always runs to completion.
func (r *Runner) Run(ctx context.Context) error {
	if r.pollInterval <= 0 {
		return errors.New("poll interval must be greater than zero")
	}

	cycleCtx := context.WithoutCancel(ctx)

	_ = r.RunOnce(cycleCtx)

	ticker := r.tickerFactory(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("runner stopped")
			return nil
		case <-ticker.C():
			if ctx.Err() != nil {
				continue
			}
			_ = r.RunOnce(cycleCtx)
		}
	}
}

// RunOnce executes a single cycle. Failures, including panics, are logged,
// counted and returned as *RuntimeError; they never escape as panics.
func (r *Runner) RunOnce(ctx context.Context) (err error) {
	cycle := &Cycle{ID: r.newID(), At: r.now().UTC()}
	cycle.Logger = r.logger.With().Str("cycle_id", cycle.ID).Time("cycle_at", cycle.At).Logger()

	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.IncCyclePanics()
			err = &RuntimeError{
				Op:       "cycle",
				CycleID:  cycle.ID,
				CycleAt:  cycle.At,
				Identity: cycle.Identity,
				Err:      fmt.Errorf("panic: %v", rec),
			}
			cycle.Logger.Error().
				Err(err).
				Str("container", string(cycle.Identity)).
				Str("stack", string(debug.Stack())).
				Msg("run cycle panicked")
			r.tracker.RecordFailure(err)
			return
		}
		if err != nil {
			err = wrapRuntime("cycle", cycle, err)
			r.recordFailure(cycle, err)
		}
	}()

	return r.runOnce(ctx, cycle)
}

func (r *Runner) recordFailure(cycle *Cycle, err error) {
	r.tracker.RecordFailure(err)

	if errors.Is(err, engine.ErrEngineUnavailable) {
		r.metrics.IncEngineErrors()
		cycle.Logger.Warn().Err(err).Msg("engine unavailable; cycle skipped")
		return
	}

	event := cycle.Logger.Error().Err(err)
	if cycle.Identity != "" {
		event = event.Str("container", string(cycle.Identity))
	}
	event.Msg("run cycle failed")
}

func (r *Runner) defaultRunOnce(ctx context.Context, cycle *Cycle) error {
	if r.inventory == nil {
		return errors.New("no container inventory configured")
	}

	start := time.Now()

	current, err := r.inventory.ListContainers(ctx)
	if err != nil {
		return wrapRuntime("list containers", cycle, err)
	}

	transitions := transition.Detect(current, r.store)

	alerts := 0
	for _, change := range transitions {
		if !change.Alerting() {
			continue
		}
		cycle.Identity = change.Identity
		r.dispatcher.Dispatch(ctx, change)
		alerts++
	}
	cycle.Identity = ""

	transition.Apply(r.store, current)

	duration := time.Since(start)
	r.metrics.ObserveCycleDuration(duration)
	r.metrics.SetContainersByStatus(countByStatus(current))
	r.metrics.SetLastSuccessfulCycleTimestamp(cycle.At)
	r.tracker.RecordCycle(duration, len(current), alerts)

	cycle.Logger.Debug().
		Int("containers", len(current)).
		Int("tracked", r.store.Len()).
		Int("alerts", alerts).
		Dur("duration", duration).
		Msg("cycle complete")

	return nil
}

func countByStatus(current []snapshot.Snapshot) map[string]int {
	counts := make(map[string]int)
	for _, snap := range current {
		counts[string(snap.Status)]++
	}
	return counts
}
