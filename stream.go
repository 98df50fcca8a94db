package mdstream

import (
	"context"
	"fmt"
	"sync"

	"github.com/riverfjs/mdstream-go/internal/logging"
	"github.com/riverfjs/mdstream-go/internal/pacing"
	"github.com/riverfjs/mdstream-go/internal/phrase"
	"github.com/riverfjs/mdstream-go/internal/reveal"
)

// Frame 是一次短语透明度更新，PhraseStart 以 code point 计
type Frame = reveal.Frame

// Phrase is a revealed phrase of the stream.
type Phrase struct {
	Start int
	End   int
	Text  string
	Alpha float64
}

// Snapshot 是流在某一时刻的完整状态
type Snapshot struct {
	Content   string
	Corrected string
	PlainText string
	// Styled is the full flattened text, Visible only the part made of
	// completed phrases (everything once the stream is complete).
	Styled   StyledText
	Visible  StyledText
	Segments []int
	Complete bool
}

// Stream 管理一份逐块增长的 Markdown 文档
//
// 每次 Append 立即重建修正后的文档；短语分段在 debounce 窗口静默后提交，
// 新完成的短语交给 reveal 调度淡入。Close 或取消 ctx 会停止所有未完成的
// 等待与淡入。
type Stream struct {
	cfg    *streamConfig
	parent context.Context

	mu        sync.Mutex
	content   []byte
	refs      []Reference
	complete  bool
	closed    bool
	doc       *Document
	committed phrase.Text
	revealed  map[int]struct{}
	scope     *reveal.Scope
	debouncer *reveal.Debouncer
}

// NewStream creates an empty stream bound to ctx.
func NewStream(ctx context.Context, opts ...Option) (*Stream, error) {
	c := applyOptions(opts...)
	if err := c.render.Validate(); err != nil {
		return nil, err
	}
	s := &Stream{
		cfg:    c,
		parent: ctx,
		refs:   c.refs,
	}
	s.debouncer = reveal.NewDebouncer(c.render.debounce(), s.commit)
	s.resetLocked()
	return s, nil
}

func (s *Stream) newScope() *reveal.Scope {
	p := s.cfg.pacing
	if p == nil {
		p = pacing.New()
	}
	opts := []reveal.ScopeOption{reveal.WithPacing(p)}
	if s.cfg.onFrame != nil {
		opts = append(opts, reveal.WithFrameHandler(s.cfg.onFrame))
	}
	return reveal.NewScope(s.parent, s.cfg.render.revealConfig(), opts...)
}

func (s *Stream) resetLocked() {
	s.content = s.content[:0]
	s.complete = false
	s.committed = phrase.Text{Segments: []int{0}}
	s.revealed = make(map[int]struct{})
	s.scope = s.newScope()
	s.rebuildLocked()
}

func (s *Stream) rebuildLocked() {
	s.doc = newDocument(string(s.content), s.refs, s.cfg)
}

// Append adds a chunk of streamed text. It fails once the stream is
// complete or closed.
func (s *Stream) Append(chunk string) error {
	s.mu.Lock()
	if err := s.writableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.content = append(s.content, chunk...)
	s.rebuildLocked()
	s.mu.Unlock()

	s.debouncer.Trigger()
	return nil
}

// SetReferences replaces the content references. Ranges refer to the full
// content, including text not yet streamed.
func (s *Stream) SetReferences(refs []Reference) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.refs = refs
	s.rebuildLocked()
	s.mu.Unlock()

	s.debouncer.Trigger()
	return nil
}

// Complete marks the end of the stream and reveals the trailing phrase even
// when it does not end on a phrase marker.
func (s *Stream) Complete() error {
	s.mu.Lock()
	if err := s.writableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.complete = true
	s.mu.Unlock()

	s.debouncer.Flush()
	s.commit()
	return nil
}

// Reset drops the content and cancels every pending reveal. References are
// kept.
func (s *Stream) Reset() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	old := s.scope
	s.resetLocked()
	s.mu.Unlock()

	if err := old.Close(); err != nil {
		return fmt.Errorf("close reveal scope: %w", err)
	}
	return nil
}

// commit re-segments the current document and schedules the reveal of every
// newly completed phrase.
func (s *Stream) commit() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	seg := s.doc.Segmentation()
	if !s.complete && !seg.HasNewPhrasesFrom(s.committed) {
		s.committed = seg
		s.mu.Unlock()
		return
	}
	s.committed = seg

	var starts []int
	for _, p := range seg.Phrases(s.complete) {
		if _, ok := s.revealed[p[0]]; ok {
			continue
		}
		s.revealed[p[0]] = struct{}{}
		starts = append(starts, p[0])
	}
	scope := s.scope
	s.mu.Unlock()

	if len(starts) > 0 {
		logging.Debugf("stream %s: revealing %d phrase(s) from %d", scope.ID(), len(starts), starts[0])
	}
	for _, start := range starts {
		scope.Reveal(start)
	}
}

// CorrectedMarkdownText returns the corrected text of the current content.
func (s *Stream) CorrectedMarkdownText() string {
	s.mu.Lock()
	doc := s.doc
	s.mu.Unlock()
	return doc.CorrectedMarkdownText()
}

// Document returns the document built from the current content.
func (s *Stream) Document() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Snapshot returns the current state of the stream.
func (s *Stream) Snapshot() Snapshot {
	s.mu.Lock()
	doc, committed, complete := s.doc, s.committed, s.complete
	s.mu.Unlock()

	styled := doc.StyledText()
	visible := styled.Slice(0, committed.Last())
	if complete {
		visible = styled
	}
	return Snapshot{
		Content:   doc.Content(),
		Corrected: doc.CorrectedMarkdownText(),
		PlainText: doc.PlainTextForSelection(),
		Styled:    styled,
		Visible:   visible,
		Segments:  append([]int(nil), committed.Segments...),
		Complete:  complete,
	}
}

// Phrases returns the revealed phrases in order, with their current alpha.
func (s *Stream) Phrases() []Phrase {
	s.mu.Lock()
	committed, complete, scope := s.committed, s.complete, s.scope
	styled := s.doc.StyledText()
	s.mu.Unlock()

	alphas := scope.Alphas()
	var out []Phrase
	for _, p := range committed.Phrases(complete) {
		alpha, ok := alphas[p[0]]
		if !ok {
			continue
		}
		out = append(out, Phrase{
			Start: p[0],
			End:   p[1],
			Text:  styled.Slice(p[0], p[1]).Text,
			Alpha: alpha,
		})
	}
	return out
}

// Alphas returns the opacity of every revealed phrase keyed by its start.
func (s *Stream) Alphas() map[int]float64 {
	s.mu.Lock()
	scope := s.scope
	s.mu.Unlock()
	return scope.Alphas()
}

// Wait blocks until every scheduled reveal has finished.
func (s *Stream) Wait() error {
	s.mu.Lock()
	scope := s.scope
	s.mu.Unlock()
	return scope.Wait()
}

// Close stops the debouncer and cancels every pending reveal. No frame is
// delivered after Close returns.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	scope := s.scope
	s.mu.Unlock()

	s.debouncer.Stop()
	return scope.Close()
}

func (s *Stream) writableLocked() error {
	switch {
	case s.closed:
		return ErrClosed
	case s.complete:
		return ErrComplete
	}
	return nil
}
