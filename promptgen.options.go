package promptgen

import (
	"go.uber.org/zap"
)

// Option is a functional option for configuring the Engine.
type Option func(*engineConfig)

// engineConfig holds the internal configuration for an Engine.
type engineConfig struct {
	store           DocumentStore
	logger          *zap.Logger
	indexBase       int
	strictSelectors bool
	maxDepth        int
	styleSensitive  []string
	client          GenerationClient
}

// defaultEngineConfig returns the default engine configuration.
func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		indexBase: DefaultIndexBase,
		maxDepth:  DefaultMaxInheritanceDepth,
	}
}

// WithStore sets the document store resolution reads from.
// Default: an empty in-memory store.
func WithStore(store DocumentStore) Option {
	return func(c *engineConfig) {
		c.store = store
	}
}

// WithLogger sets the logger for the engine.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// WithIndexBase sets the numbering base for index and range selectors.
// Only 0 and 1 are accepted.
// Default: 1
func WithIndexBase(base int) Option {
	return func(c *engineConfig) {
		if base == 0 || base == 1 {
			c.indexBase = base
		}
	}
}

// WithStrictSelectors makes unknown keys and out-of-range indices fatal
// instead of silently skipped.
// Default: false
func WithStrictSelectors(strict bool) Option {
	return func(c *engineConfig) {
		c.strictSelectors = strict
	}
}

// WithMaxInheritanceDepth sets the maximum implements chain length.
// Default: 10
func WithMaxInheritanceDepth(depth int) Option {
	return func(c *engineConfig) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithStyleSensitive adds placeholder names treated as style-sensitive
// in every resolution, on top of the names each template declares via
// its parameters.
func WithStyleSensitive(names ...string) Option {
	return func(c *engineConfig) {
		c.styleSensitive = append(c.styleSensitive, names...)
	}
}

// WithGenerationClient sets the client Submit hands finished results to.
// Default: nil (Submit returns an error)
func WithGenerationClient(client GenerationClient) Option {
	return func(c *engineConfig) {
		c.client = client
	}
}
