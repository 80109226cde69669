package history

import (
	"math"

	"github.com/dshills/stepwise/internal/logging"
	"github.com/dshills/stepwise/internal/notify"
)

// Unbounded is the default step limit: history grows without eviction.
const Unbounded = math.MaxInt

type config struct {
	maxSteps   int
	dropFailed bool
	logger     *logging.Logger
	notifier   *notify.Notifier
}

// Option configures a Manager.
type Option func(*config)

// WithMaxSteps limits the number of applied steps retained.
// Values below 1 make NewManager fail with ErrInvalidMaxSteps.
func WithMaxSteps(n int) Option {
	return func(c *config) {
		c.maxSteps = n
	}
}

// WithDropFailedSteps controls what happens to a step whose submission
// failed and was rolled back. By default the step stays on the applied
// stack; with drop enabled it is removed again.
func WithDropFailedSteps(drop bool) Option {
	return func(c *config) {
		c.dropFailed = drop
	}
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(l *logging.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithNotifier shares an existing notifier, so several managers can feed the
// same observers.
func WithNotifier(n *notify.Notifier) Option {
	return func(c *config) {
		if n != nil {
			c.notifier = n
		}
	}
}

type stepConfig[M any] struct {
	before    M
	hasBefore bool
	finisher  func(M)
}

// StepOption configures a single AddStep call.
type StepOption[M any] func(*stepConfig[M])

// WithBefore supplies the "before" memento instead of capturing it from the
// current state. Use it when the memento must reflect an earlier state than
// the one at submission time.
func WithBefore[M any](memento M) StepOption[M] {
	return func(c *stepConfig[M]) {
		c.before = memento
		c.hasBefore = true
	}
}

// WithFinisher registers a callback invoked with the "after" memento once
// every operator applied, letting the caller annotate the snapshot.
func WithFinisher[M any](fn func(after M)) StepOption[M] {
	return func(c *stepConfig[M]) {
		c.finisher = fn
	}
}
