package trigger

import (
	"context"
	"log/slog"
	"time"

	"strmsync/internal/logging"
)

// Controller serializes and coalesces cycle runs for one source.
type Controller struct {
	name     string
	interval time.Duration
	debounce time.Duration
	run      func(ctx context.Context)

	events   chan struct{}
	triggers chan struct{}
	logger   *slog.Logger
}

// New builds a controller. interval zero disables the timer; debounce zero
// makes filesystem events fire immediately. run is invoked from the
// controller's goroutine chain and must honor ctx.
func New(name string, interval, debounce time.Duration, run func(ctx context.Context), logger *slog.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Controller{
		name:     name,
		interval: interval,
		debounce: debounce,
		run:      run,
		events:   make(chan struct{}, 1),
		triggers: make(chan struct{}, 1),
		logger:   logging.WithComponent(logger, "trigger"),
	}
}

// Notify reports a filesystem change event. Events are debounced and
// coalesced; Notify never blocks.
func (c *Controller) Notify() {
	select {
	case c.events <- struct{}{}:
	default:
	}
}

// Trigger requests an immediate cycle, bypassing the debounce window.
// Requests during a running cycle collapse into one follow-up cycle.
func (c *Controller) Trigger() {
	select {
	case c.triggers <- struct{}{}:
	default:
	}
}

// Run drives the trigger loop until ctx is cancelled. An in-flight cycle is
// waited for before returning so shutdown never abandons a half-applied plan.
func (c *Controller) Run(ctx context.Context) error {
	var tickerC <-chan time.Time
	if c.interval > 0 {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		tickerC = ticker.C
	}

	debounce := time.NewTimer(time.Hour)
	if !debounce.Stop() {
		<-debounce.C
	}
	debounceArmed := false

	running := false
	pending := false
	done := make(chan struct{}, 1)

	start := func(reason string) {
		running = true
		c.logger.Debug("cycle dispatched",
			logging.String("source", c.name),
			logging.String("reason", reason),
		)
		go func() {
			c.run(ctx)
			done <- struct{}{}
		}()
	}
	requested := func(reason string) {
		if running {
			pending = true
			return
		}
		start(reason)
	}

	for {
		select {
		case <-ctx.Done():
			if running {
				<-done
			}
			return ctx.Err()

		case <-c.events:
			if debounceArmed && !debounce.Stop() {
				<-debounce.C
			}
			debounce.Reset(c.debounce)
			debounceArmed = true

		case <-debounce.C:
			debounceArmed = false
			requested("filesystem change")

		case <-c.triggers:
			requested("manual trigger")

		case <-tickerC:
			requested("interval")

		case <-done:
			running = false
			if pending {
				pending = false
				start("coalesced requests")
			}
		}
	}
}
