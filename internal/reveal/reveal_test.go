package reveal

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/riverfjs/mdstream-go/internal/pacing"
)

type frameLog struct {
	mu     sync.Mutex
	frames []Frame
}

func (l *frameLog) add(f Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frames = append(l.frames, f)
}

func (l *frameLog) snapshot() []Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Frame(nil), l.frames...)
}

func animated(fade, delay time.Duration) Config {
	return Config{
		Animate:       true,
		Params:        pacing.Params{FadeIn: fade, Delay: delay, Exponent: 1},
		FrameInterval: 2 * time.Millisecond,
	}
}

func TestRevealWithoutAnimation(t *testing.T) {
	log := &frameLog{}
	s := NewScope(context.Background(), Config{}, WithFrameHandler(log.add))
	defer s.Close()

	s.Reveal(0)
	require.Equal(t, 1.0, s.Alpha(0))
	require.Equal(t, []Frame{{PhraseStart: 0, Alpha: 1}}, log.snapshot())
	require.NotEmpty(t, s.ID())
}

func TestRevealFadesToOne(t *testing.T) {
	log := &frameLog{}
	s := NewScope(context.Background(), animated(30*time.Millisecond, 0), WithFrameHandler(log.add))
	defer s.Close()

	s.Reveal(0)
	require.Eventually(t, func() bool { return s.Alpha(0) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Wait())

	frames := log.snapshot()
	require.GreaterOrEqual(t, len(frames), 2)
	for i := 1; i < len(frames); i++ {
		require.GreaterOrEqual(t, frames[i].Alpha, frames[i-1].Alpha)
	}
	require.Equal(t, 1.0, frames[len(frames)-1].Alpha)
}

func TestRevealSupersedesOlderPhrases(t *testing.T) {
	s := NewScope(context.Background(), animated(time.Hour, 0))
	defer s.Close()

	s.Reveal(0)
	s.Reveal(10)
	require.Equal(t, 1.0, s.Alpha(0))
	require.Less(t, s.Alpha(10), 1.0)
	require.Equal(t, 10, s.Latest())

	// revealing a known phrase again is a no-op
	s.Reveal(10)
	require.Len(t, s.Alphas(), 2)
}

func TestRevealUsesPacing(t *testing.T) {
	p := pacing.New()
	s := NewScope(context.Background(), animated(10*time.Millisecond, 200*time.Millisecond), WithPacing(p))
	defer s.Close()

	s.Reveal(0)
	s.Reveal(5)
	// the second phrase waits for its slot
	require.Positive(t, p.DelayFor())
	require.Equal(t, 0.0, s.Alpha(5))
	require.Eventually(t, func() bool { return s.Alpha(5) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestCloseCancelsWithoutFurtherFrames(t *testing.T) {
	var count atomic.Int32
	s := NewScope(context.Background(), animated(time.Hour, 0), WithFrameHandler(func(Frame) {
		count.Add(1)
	}))

	s.Reveal(0)
	require.Eventually(t, func() bool { return count.Load() > 0 }, time.Second, time.Millisecond)
	require.NoError(t, s.Close())

	after := count.Load()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, after, count.Load())

	s.Reveal(3)
	require.Equal(t, 0.0, s.Alpha(3))
}

func TestRevealRacingClose(t *testing.T) {
	for round := 0; round < 20; round++ {
		var closed atomic.Bool
		var late atomic.Int32
		s := NewScope(context.Background(), animated(time.Hour, 0), WithFrameHandler(func(Frame) {
			if closed.Load() {
				late.Add(1)
			}
		}))

		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					s.Reveal(g*1000 + i)
				}
			}(g)
		}
		require.NoError(t, s.Close())
		closed.Store(true)
		wg.Wait()

		// reveals that lost the race must not leave tasks behind
		require.NoError(t, s.Wait())
		require.Zero(t, late.Load())
	}
}

func TestParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScope(ctx, animated(10*time.Millisecond, time.Hour))

	s.Reveal(0)
	s.Reveal(1)
	cancel()
	done := make(chan error, 1)
	go func() { done <- s.Wait() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("pending reveal not cancelled")
	}
}

func TestDebouncer(t *testing.T) {
	var runs atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func() { runs.Add(1) })

	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, d.Pending())
	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.False(t, d.Pending())

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(1), runs.Load())
}

func TestDebouncerFlushAndStop(t *testing.T) {
	var runs atomic.Int32
	d := NewDebouncer(time.Hour, func() { runs.Add(1) })

	d.Flush()
	require.Zero(t, runs.Load())

	d.Trigger()
	d.Flush()
	require.Equal(t, int32(1), runs.Load())

	d.Trigger()
	d.Stop()
	d.Trigger()
	d.Flush()
	require.Equal(t, int32(1), runs.Load())
	require.False(t, d.Pending())
}

func TestDebouncerZeroDelay(t *testing.T) {
	var runs atomic.Int32
	d := NewDebouncer(0, func() { runs.Add(1) })
	d.Trigger()
	d.Trigger()
	require.Equal(t, int32(2), runs.Load())
}
