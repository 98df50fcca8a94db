// Package pacing staggers the start times of concurrent phrase reveals.
package pacing

import (
	"math"
	"sync"
	"time"
)

// DefaultMaxQueue bounds how far past now a start can be queued when
// Params.MaxQueue is zero.
const DefaultMaxQueue = 10 * time.Second

// Params 是一次 reveal 的动画参数
type Params struct {
	FadeIn   time.Duration
	Delay    time.Duration
	Exponent float64
	// MaxQueue caps the queued delay of one registration; zero means
	// DefaultMaxQueue.
	MaxQueue time.Duration
}

func (p Params) maxQueue() time.Duration {
	if p.MaxQueue > 0 {
		return p.MaxQueue
	}
	return DefaultMaxQueue
}

// State is the pacing state of one render scope. It is safe for
// concurrent use.
type State struct {
	mu        sync.Mutex
	nextStart time.Time
	now       func() time.Time
}

// Option configures a State.
type Option func(*State)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *State) {
		s.now = now
	}
}

// New creates an empty pacing state.
func New(opts ...Option) *State {
	s := &State{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterReveal advances the next start time for a newly scheduled phrase.
//
//   - first registration, or the previous start is more than one delay in
//     the past: start now
//   - the previous start is within one delay in the past: start one delay
//     from now plus the time elapsed since it
//   - a start is already queued in the future: push it out by
//     delay * (delay/diff)^exponent, which shrinks as the queue grows; the
//     queued start never lands more than MaxQueue past now and never moves
//     earlier
func (s *State) RegisterReveal(p Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registerLocked(p)
}

func (s *State) registerLocked(p Params) {
	now := s.now()
	if s.nextStart.IsZero() {
		s.nextStart = now
		return
	}

	diff := s.nextStart.Sub(now)
	switch {
	case diff < -p.Delay:
		s.nextStart = now
	case diff <= 0:
		s.nextStart = now.Add(p.Delay - diff)
	default:
		backoff := float64(p.Delay) * math.Pow(float64(p.Delay)/float64(diff), p.Exponent)
		// 在 float64 中饱和，避免 diff 极小时 time.Duration 溢出
		limit := float64(max(0, p.maxQueue()-diff))
		if math.IsNaN(backoff) || backoff > limit {
			backoff = limit
		}
		s.nextStart = now.Add(diff + time.Duration(backoff))
	}
}

// DelayFor returns how long a phrase scheduled now should wait before its
// fade-in starts. It is never negative.
func (s *State) DelayFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nextStart.IsZero() {
		return 0
	}
	return max(0, s.nextStart.Sub(s.now()))
}

// Reserve registers a reveal and returns its delay in one step, so
// concurrent callers each observe their own registration.
func (s *State) Reserve(p Params) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registerLocked(p)
	return max(0, s.nextStart.Sub(s.now()))
}

// NextStart returns the queued start time, zero when nothing was
// registered.
func (s *State) NextStart() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextStart
}
