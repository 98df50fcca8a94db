package mdstream

import "github.com/riverfjs/mdstream-go/internal/pacing"

// streamConfig holds everything a Stream is built from.
type streamConfig struct {
	render           RenderOptions
	refs             []Reference
	alreadyProcessed bool
	onFrame          func(Frame)
	pacing           *pacing.State
}

// Option is a function that configures a Stream or Document.
type Option func(*streamConfig)

// WithRenderOptions replaces the whole option set.
func WithRenderOptions(o RenderOptions) Option {
	return func(c *streamConfig) {
		c.render = o
	}
}

// WithAnimate enables phrase fade-in.
func WithAnimate(enable bool) Option {
	return func(c *streamConfig) {
		c.render.Animate = enable
	}
}

// WithTextFadeIn sets the fade-in duration in milliseconds.
func WithTextFadeIn(ms int) Option {
	return func(c *streamConfig) {
		c.render.TextFadeInMs = ms
	}
}

// WithDelay sets the per-phrase stagger in milliseconds.
func WithDelay(ms int) Option {
	return func(c *streamConfig) {
		c.render.DelayMs = ms
	}
}

// WithDebounce sets the quiet window before re-segmenting, in milliseconds.
func WithDebounce(ms int) Option {
	return func(c *streamConfig) {
		c.render.DebounceMs = ms
	}
}

// WithDelayExponent sets the pacing back-off exponent.
func WithDelayExponent(exp float64) Option {
	return func(c *streamConfig) {
		c.render.DelayExponent = exp
	}
}

// WithMaxQueue caps the queued reveal delay in milliseconds; 0 keeps the
// pacing default.
func WithMaxQueue(ms int) Option {
	return func(c *streamConfig) {
		c.render.MaxQueueMs = ms
	}
}

// WithAutolink toggles plain URL detection.
func WithAutolink(enable bool) Option {
	return func(c *streamConfig) {
		c.render.Autolink = enable
	}
}

// WithAutoClose toggles closing of truncated inline delimiters.
func WithAutoClose(enable bool) Option {
	return func(c *streamConfig) {
		c.render.AutoCloseInlineDelimiters = enable
	}
}

// WithReferences sets the initial content references.
func WithReferences(refs ...Reference) Option {
	return func(c *streamConfig) {
		c.refs = refs
	}
}

// WithAlreadyProcessed marks content whose placeholders were inserted
// upstream; citation trimming and splicing are skipped.
func WithAlreadyProcessed(processed bool) Option {
	return func(c *streamConfig) {
		c.alreadyProcessed = processed
	}
}

// WithFrameHandler installs a callback receiving every alpha update. It runs
// on reveal goroutines and must not call Close.
func WithFrameHandler(fn func(Frame)) Option {
	return func(c *streamConfig) {
		c.onFrame = fn
	}
}

// withPacing shares a pacing state, for tests.
func withPacing(p *pacing.State) Option {
	return func(c *streamConfig) {
		c.pacing = p
	}
}

// applyOptions applies the given options to the default options.
func applyOptions(opts ...Option) *streamConfig {
	c := &streamConfig{render: DefaultRenderOptions()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
