// Package reveal schedules phrase fade-ins.
//
// A Scope owns one task per revealed phrase. Each task waits the delay the
// pacing state hands out, then drives the phrase alpha from 0 to 1 over the
// fade-in duration and publishes every step as a Frame. Closing the scope
// cancels every pending wait and running fade; no frame is published after
// Close returns.
package reveal

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/riverfjs/mdstream-go/internal/logging"
	"github.com/riverfjs/mdstream-go/internal/pacing"
)

// DefaultFrameInterval is roughly one 60 Hz frame.
const DefaultFrameInterval = 16 * time.Millisecond

// Frame 是一次 alpha 更新
type Frame struct {
	PhraseStart int
	Alpha       float64
}

// Config 控制 reveal 行为
type Config struct {
	Animate       bool
	Params        pacing.Params
	FrameInterval time.Duration
}

// Scope is the reveal scheduler of one rendered document.
type Scope struct {
	id     string
	cfg    Config
	pacing *pacing.State

	cancel context.CancelFunc
	ctx    context.Context
	group  *errgroup.Group

	mu     sync.Mutex
	alphas map[int]float64
	latest int
	// stopped is set under mu before Close waits on group, so no task is
	// added to group once Wait may have started.
	stopped bool

	// emitMu serialises frame delivery with Close.
	emitMu  sync.Mutex
	closed  bool
	onFrame func(Frame)
}

// ScopeOption configures a Scope.
type ScopeOption func(*Scope)

// WithPacing shares a pacing state instead of creating a private one.
func WithPacing(p *pacing.State) ScopeOption {
	return func(s *Scope) {
		s.pacing = p
	}
}

// WithFrameHandler installs the frame callback. It runs on the reveal
// goroutines and must not call Close.
func WithFrameHandler(fn func(Frame)) ScopeOption {
	return func(s *Scope) {
		s.onFrame = fn
	}
}

// NewScope creates a scope bound to parent. Cancelling parent has the same
// effect as Close.
func NewScope(parent context.Context, cfg Config, opts ...ScopeOption) *Scope {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	ctx, cancel := context.WithCancel(parent)
	group, gctx := errgroup.WithContext(ctx)

	s := &Scope{
		id:     uuid.NewString(),
		cfg:    cfg,
		cancel: cancel,
		ctx:    gctx,
		group:  group,
		alphas: make(map[int]float64),
		latest: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pacing == nil {
		s.pacing = pacing.New()
	}
	return s
}

// ID returns the scope identifier used in log lines.
func (s *Scope) ID() string {
	return s.id
}

// Reveal schedules the fade-in of the phrase starting at phraseStart. Every
// phrase before it is forced to full opacity. Revealing a phrase twice, or
// revealing on a closed scope, does nothing.
func (s *Scope) Reveal(phraseStart int) {
	s.mu.Lock()
	if _, seen := s.alphas[phraseStart]; seen || s.stopped || s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	var superseded []int
	for start, a := range s.alphas {
		if start < phraseStart && a < 1 {
			s.alphas[start] = 1
			superseded = append(superseded, start)
		}
	}
	s.alphas[phraseStart] = 0
	s.latest = max(s.latest, phraseStart)
	s.mu.Unlock()

	for _, start := range superseded {
		s.emit(Frame{PhraseStart: start, Alpha: 1})
	}

	if !s.cfg.Animate {
		s.publish(phraseStart, 1)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	delay := s.pacing.Reserve(s.cfg.Params)
	s.group.Go(func() error {
		s.run(phraseStart, delay)
		return nil
	})
}

func (s *Scope) run(phraseStart int, delay time.Duration) {
	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			logging.Debugf("reveal %s: phrase %d cancelled while waiting", s.id, phraseStart)
			return
		case <-timer.C:
		}
	}

	fade := s.cfg.Params.FadeIn
	if fade <= 0 {
		s.publish(phraseStart, 1)
		return
	}

	ticker := time.NewTicker(s.cfg.FrameInterval)
	defer ticker.Stop()
	begin := time.Now()
	for {
		alpha := min(1, float64(time.Since(begin))/float64(fade))
		if !s.publish(phraseStart, alpha) || alpha >= 1 {
			return
		}
		select {
		case <-s.ctx.Done():
			logging.Debugf("reveal %s: phrase %d cancelled mid-fade", s.id, phraseStart)
			return
		case <-ticker.C:
		}
	}
}

// publish records alpha for a phrase and emits it. It returns false when
// the phrase no longer animates: superseded by a newer phrase, or the scope
// is gone.
func (s *Scope) publish(phraseStart int, alpha float64) bool {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return false
	}
	if s.alphas[phraseStart] >= 1 {
		s.mu.Unlock()
		return false
	}
	s.alphas[phraseStart] = alpha
	s.mu.Unlock()
	return s.emit(Frame{PhraseStart: phraseStart, Alpha: alpha})
}

func (s *Scope) emit(f Frame) bool {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	if s.closed || s.ctx.Err() != nil {
		return false
	}
	if s.onFrame != nil {
		s.onFrame(f)
	}
	return true
}

// Alpha returns the current opacity of the phrase starting at
// phraseStart. Phrases never revealed report 0.
func (s *Scope) Alpha(phraseStart int) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alphas[phraseStart]
}

// Alphas returns a copy of every tracked phrase opacity.
func (s *Scope) Alphas() map[int]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]float64, len(s.alphas))
	for k, v := range s.alphas {
		out[k] = v
	}
	return out
}

// Latest returns the start of the newest revealed phrase, or -1.
func (s *Scope) Latest() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Wait blocks until every scheduled reveal has finished.
func (s *Scope) Wait() error {
	return s.group.Wait()
}

// Close cancels all pending and running reveals and waits for them.
func (s *Scope) Close() error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.cancel()
	s.emitMu.Lock()
	s.closed = true
	s.emitMu.Unlock()
	return s.group.Wait()
}
