package rewrite

// DefaultMaxIterations is the default maximum number of rewrites applied by ApplyPatternsGreedily.
const DefaultMaxIterations = 10_000

// Config of the greedy driver. Create it with DefaultConfig and change it with the With* methods.
type Config struct {
	maxIterations       int
	deadCodeElimination bool
}

// DefaultConfig returns a new configuration with DefaultMaxIterations and dead code elimination enabled.
func DefaultConfig() *Config {
	return &Config{
		maxIterations:       DefaultMaxIterations,
		deadCodeElimination: true,
	}
}

// WithMaxIterations sets the maximum number of rewrites. If it is reached before a fixpoint,
// ApplyPatternsGreedily returns an error. A value <= 0 means no limit.
func (c *Config) WithMaxIterations(n int) *Config {
	c.maxIterations = n
	return c
}

// WithDeadCodeElimination sets whether statements without side effects whose outputs are not used are erased.
func (c *Config) WithDeadCodeElimination(enabled bool) *Config {
	c.deadCodeElimination = enabled
	return c
}

// MaxIterations returns the configured maximum number of rewrites.
func (c *Config) MaxIterations() int { return c.maxIterations }

// DeadCodeElimination returns whether dead code elimination is enabled.
func (c *Config) DeadCodeElimination() bool { return c.deadCodeElimination }
