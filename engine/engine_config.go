package engine

import (
	"time"

	"templecode/errors"
	"templecode/expression"
	"templecode/logging"
)

const (
	// DefaultMaxIterations bounds the number of statements a run may execute
	DefaultMaxIterations = 100000
	// DefaultTimeout is the wall-clock budget of a run
	DefaultTimeout = 10 * time.Second
	// DefaultTimeCheckInterval is how many steps pass between deadline checks
	DefaultTimeCheckInterval = 256
	// DefaultPrintZoneWidth is the column width of a PRINT comma zone
	DefaultPrintZoneWidth = 14
	// DefaultMaxCallDepth bounds GOSUB and procedure nesting
	DefaultMaxCallDepth = 1000
)

// Config contains configuration for the execution engine
type Config struct {
	MaxIterations     int           `json:"max_iterations" yaml:"max_iterations"`
	Timeout           time.Duration `json:"timeout" yaml:"timeout"`
	TimeCheckInterval int           `json:"time_check_interval" yaml:"time_check_interval"`
	PrintZoneWidth    int           `json:"print_zone_width" yaml:"print_zone_width"`
	MaxCallDepth      int           `json:"max_call_depth" yaml:"max_call_depth"`
	// CacheSize is the expression parse cache capacity; 0 disables it
	CacheSize int `json:"cache_size" yaml:"cache_size"`
	// Seed makes RANDOM reproducible when non-zero
	Seed int64 `json:"seed" yaml:"seed"`
	// PreserveVariables keeps the variable store between runs
	PreserveVariables bool `json:"preserve_variables" yaml:"preserve_variables"`
}

// DefaultConfig returns the limits used when nothing is configured
func DefaultConfig() Config {
	return Config{
		MaxIterations:     DefaultMaxIterations,
		Timeout:           DefaultTimeout,
		TimeCheckInterval: DefaultTimeCheckInterval,
		PrintZoneWidth:    DefaultPrintZoneWidth,
		MaxCallDepth:      DefaultMaxCallDepth,
		CacheSize:         expression.DefaultCacheSize,
	}
}

// withDefaults fills zero limits; a zero Timeout keeps the default too, a
// negative one disables the deadline
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxIterations <= 0 {
		c.MaxIterations = def.MaxIterations
	}
	if c.Timeout == 0 {
		c.Timeout = def.Timeout
	}
	if c.TimeCheckInterval <= 0 {
		c.TimeCheckInterval = def.TimeCheckInterval
	}
	if c.PrintZoneWidth <= 0 {
		c.PrintZoneWidth = def.PrintZoneWidth
	}
	if c.MaxCallDepth <= 0 {
		c.MaxCallDepth = def.MaxCallDepth
	}
	if c.CacheSize < 0 {
		c.CacheSize = 0
	}
	return c
}

// Suggester proposes the closest candidate for a misspelled word. It
// returns "" when nothing is close enough.
type Suggester interface {
	Suggest(word string, candidates []string) string
}

// Option configures optional collaborators of an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger.WithComponent("engine")
		}
	}
}

// WithSuggester sets the collaborator used for "did you mean" hints
func WithSuggester(s Suggester) Option {
	return func(e *Engine) {
		e.suggester = s
	}
}

// WithEvaluator replaces the expression evaluator built from Config
func WithEvaluator(ev *expression.Evaluator) Option {
	return func(e *Engine) {
		if ev != nil {
			e.evaluator = ev
		}
	}
}

// WithErrorHandler replaces the recovery policy
func WithErrorHandler(h errors.ErrorHandler) Option {
	return func(e *Engine) {
		if h != nil {
			e.errorHandler = h
		}
	}
}

// WithClock replaces the wall clock used for the deadline
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
