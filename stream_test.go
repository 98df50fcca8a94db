package mdstream

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/riverfjs/mdstream-go/internal/pacing"
)

type frameRecorder struct {
	mu     sync.Mutex
	frames []Frame
}

func (r *frameRecorder) add(f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
}

func (r *frameRecorder) starts() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, f := range r.frames {
		out = append(out, f.PhraseStart)
	}
	return out
}

func newTestStream(t *testing.T, opts ...Option) *Stream {
	t.Helper()
	s, err := NewStream(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStream_EndToEnd(t *testing.T) {
	rec := &frameRecorder{}
	s := newTestStream(t, WithDebounce(0), WithFrameHandler(rec.add))

	require.NoError(t, s.Append("Hel"))
	require.Equal(t, "Hel", s.CorrectedMarkdownText())
	require.Empty(t, s.Phrases())

	require.NoError(t, s.Append("lo **wor"))
	require.Equal(t, "Hello **wor**", s.CorrectedMarkdownText())

	require.NoError(t, s.Append("ld**!"))
	require.Equal(t, "Hello **world**!", s.CorrectedMarkdownText())

	phrases := s.Phrases()
	require.Len(t, phrases, 3)
	require.Equal(t, "Hello ", phrases[0].Text)
	require.Equal(t, "world", phrases[1].Text)
	require.Equal(t, "!", phrases[2].Text)
	for _, p := range phrases {
		require.Equal(t, 1.0, p.Alpha)
	}
	require.Equal(t, []int{0, 6, 11}, rec.starts())

	snap := s.Snapshot()
	require.Equal(t, "Hello world!", snap.Visible.Text)
	require.Equal(t, []int{0, 6, 11, 12}, snap.Segments)
	require.Equal(t, "Hello **world**!", snap.PlainText)
}

func TestStream_OnlyCompletedPhrasesAreVisible(t *testing.T) {
	s := newTestStream(t, WithDebounce(0))

	require.NoError(t, s.Append("First. Sec"))
	snap := s.Snapshot()
	require.Equal(t, "First. Sec", snap.Styled.Text)
	require.Equal(t, "First.", snap.Visible.Text)
	require.False(t, snap.Complete)

	require.NoError(t, s.Complete())
	snap = s.Snapshot()
	require.True(t, snap.Complete)
	require.Equal(t, "First. Sec", snap.Visible.Text)

	phrases := s.Phrases()
	require.Len(t, phrases, 2)
	require.Equal(t, " Sec", phrases[1].Text)

	require.ErrorIs(t, s.Append("more"), ErrComplete)
	require.ErrorIs(t, s.Complete(), ErrComplete)
}

func TestStream_Debounce(t *testing.T) {
	s := newTestStream(t, WithDebounce(30))

	require.NoError(t, s.Append("One. "))
	require.NoError(t, s.Append("Two."))
	require.Empty(t, s.Phrases())

	require.Eventually(t, func() bool { return len(s.Phrases()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestStream_CompleteFlushesDebounce(t *testing.T) {
	s := newTestStream(t, WithDebounce(60_000))

	require.NoError(t, s.Append("Done"))
	require.NoError(t, s.Complete())
	require.Len(t, s.Phrases(), 1)
}

func TestStream_Animated(t *testing.T) {
	p := pacing.New()
	s := newTestStream(t,
		WithDebounce(0),
		WithAnimate(true),
		WithTextFadeIn(20),
		WithDelay(5),
		withPacing(p),
	)

	require.NoError(t, s.Append("A. B."))
	require.Eventually(t, func() bool {
		alphas := s.Alphas()
		return len(alphas) == 2 && alphas[0] == 1 && alphas[2] == 1
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Wait())
	require.False(t, p.NextStart().IsZero())
}

func TestStream_NewerPhraseSupersedes(t *testing.T) {
	s := newTestStream(t, WithDebounce(0), WithAnimate(true), WithTextFadeIn(3_600_000))

	require.NoError(t, s.Append("A."))
	require.NoError(t, s.Append(" B."))
	alphas := s.Alphas()
	require.Equal(t, 1.0, alphas[0])
	require.Less(t, alphas[2], 1.0)
}

func TestStream_SetReferences(t *testing.T) {
	s := newTestStream(t, WithDebounce(0))

	require.NoError(t, s.Append("Paris【1】 is big."))
	ref := &URLCitation{Base: RefAt(5, 8).WithAlt("[1]")}
	require.NoError(t, s.SetReferences([]Reference{ref}))

	snap := s.Snapshot()
	require.Equal(t, "Paris[1] is big.", snap.PlainText)
	require.Contains(t, snap.Styled.Text, string(ObjectReplacement))
	require.Len(t, s.Document().References(), 1)
}

func TestStream_Reset(t *testing.T) {
	s := newTestStream(t, WithDebounce(0))

	require.NoError(t, s.Append("One."))
	require.Len(t, s.Phrases(), 1)

	require.NoError(t, s.Reset())
	require.Empty(t, s.Phrases())
	require.Empty(t, s.Snapshot().Content)

	require.NoError(t, s.Append("Two."))
	require.Len(t, s.Phrases(), 1)
	require.Equal(t, "Two.", s.Phrases()[0].Text)
}

func TestStream_Close(t *testing.T) {
	s, err := NewStream(context.Background(), WithDebounce(0))
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	require.ErrorIs(t, s.Append("x"), ErrClosed)
	require.ErrorIs(t, s.SetReferences(nil), ErrClosed)
	require.ErrorIs(t, s.Reset(), ErrClosed)
}

func TestStream_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, err := NewStream(ctx, WithDebounce(0), WithAnimate(true))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Append("A."))
	require.Empty(t, s.Alphas())
	require.Empty(t, s.Phrases())
}

func TestNewStream_InvalidOptions(t *testing.T) {
	_, err := NewStream(context.Background(), WithTextFadeIn(0))
	require.ErrorIs(t, err, ErrInvalidOptions)
}
