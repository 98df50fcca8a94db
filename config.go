package mdstream

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/riverfjs/mdstream-go/internal/pacing"
	"github.com/riverfjs/mdstream-go/internal/reveal"
)

// ErrInvalidOptions is returned when render options fail validation.
var ErrInvalidOptions = errors.New("invalid render options")

// RenderOptions 渲染与动画参数，时间单位为毫秒
type RenderOptions struct {
	Animate                   bool    `yaml:"animate"`
	TextFadeInMs              int     `yaml:"textFadeInMs"`
	DelayMs                   int     `yaml:"delayMs"`
	DebounceMs                int     `yaml:"debounceMs"`
	DelayExponent             float64 `yaml:"delayExponent"`
	Autolink                  bool    `yaml:"autolink"`
	AutoCloseInlineDelimiters bool    `yaml:"autoCloseInlineDelimiters"`
	// MaxQueueMs caps how far a reveal can be queued; 0 uses the
	// pacing default.
	MaxQueueMs int `yaml:"maxQueueMs,omitempty"`
}

var (
	defaultOptions     RenderOptions
	defaultOptionsOnce sync.Once
)

// DefaultRenderOptions returns the default render options (singleton).
// The returned value is a copy; modifying it does not affect later calls.
func DefaultRenderOptions() RenderOptions {
	defaultOptionsOnce.Do(func() {
		defaultOptions = RenderOptions{
			Animate:                   false,
			TextFadeInMs:              500,
			DelayMs:                   70,
			DebounceMs:                150,
			DelayExponent:             1.0,
			Autolink:                  true,
			AutoCloseInlineDelimiters: true,
		}
	})
	return defaultOptions
}

// Validate 检查参数范围
func (o RenderOptions) Validate() error {
	switch {
	case o.TextFadeInMs <= 0:
		return fmt.Errorf("%w: textFadeInMs must be > 0, got %d", ErrInvalidOptions, o.TextFadeInMs)
	case o.DelayMs < 0:
		return fmt.Errorf("%w: delayMs must be >= 0, got %d", ErrInvalidOptions, o.DelayMs)
	case o.DebounceMs < 0:
		return fmt.Errorf("%w: debounceMs must be >= 0, got %d", ErrInvalidOptions, o.DebounceMs)
	case o.DelayExponent < 0:
		return fmt.Errorf("%w: delayExponent must be >= 0, got %g", ErrInvalidOptions, o.DelayExponent)
	case o.MaxQueueMs < 0:
		return fmt.Errorf("%w: maxQueueMs must be >= 0, got %d", ErrInvalidOptions, o.MaxQueueMs)
	}
	return nil
}

// LoadConfig decodes YAML render options from r on top of the defaults.
// Keys absent from the document keep their default values.
func LoadConfig(r io.Reader) (RenderOptions, error) {
	opts := DefaultRenderOptions()
	if err := yaml.NewDecoder(r).Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return RenderOptions{}, fmt.Errorf("decode render options: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return RenderOptions{}, err
	}
	return opts, nil
}

func (o RenderOptions) pacingParams() pacing.Params {
	return pacing.Params{
		FadeIn:   time.Duration(o.TextFadeInMs) * time.Millisecond,
		Delay:    time.Duration(o.DelayMs) * time.Millisecond,
		Exponent: o.DelayExponent,
		MaxQueue: time.Duration(o.MaxQueueMs) * time.Millisecond,
	}
}

func (o RenderOptions) revealConfig() reveal.Config {
	return reveal.Config{Animate: o.Animate, Params: o.pacingParams()}
}

func (o RenderOptions) debounce() time.Duration {
	return time.Duration(o.DebounceMs) * time.Millisecond
}
