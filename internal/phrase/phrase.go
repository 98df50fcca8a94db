// Package phrase cuts styled text into phrases, the unit of animated reveal.
//
// A phrase ends at a punctuation or whitespace-control marker, or at a style
// boundary. Offsets only depend on the text before them, so as streamed text
// grows the earlier offsets stay put and only new phrases are appended.
package phrase

import "github.com/riverfjs/mdstream-go/internal/types"

var markers = map[rune]struct{}{
	'.': {}, '!': {}, '?': {}, ',': {}, ';': {}, ':': {},
	'\n': {}, '\r': {}, '\t': {},
	'…': {}, '—': {}, '·': {}, '¡': {}, '¿': {},
	'。': {}, '、': {}, '？': {}, '！': {}, '：': {}, '；': {},
	'።': {}, '፣': {}, '፤': {}, '፥': {}, '፦': {}, '፧': {}, '፨': {},
}

// IsMarker reports whether r ends a phrase.
func IsMarker(r rune) bool {
	_, ok := markers[r]
	return ok
}

// Text 是分段后的带样式文本
//
// Segments 严格递增，第一个元素总是 0，最后一个元素不超过文本长度。
// 最后一个元素等于文本长度时表示末尾短语已完整。
type Text struct {
	Styled   types.StyledText
	Segments []int
}

// Segment computes the phrase offsets of st.
func Segment(st types.StyledText) Text {
	n := st.Len()
	segments := []int{0}
	add := func(off int) {
		if off > segments[len(segments)-1] && off <= n {
			segments = append(segments, off)
		}
	}

	bounds := st.Boundaries()
	bi := 0
	i := 0
	for _, r := range st.Text {
		for bi < len(bounds) && bounds[bi] <= i {
			// interior style boundaries only; the text end is not final yet
			if b := bounds[bi]; b > 0 && b < n {
				add(b)
			}
			bi++
		}
		if IsMarker(r) {
			add(i + 1)
		}
		i++
	}
	return Text{Styled: st, Segments: segments}
}

// SegmentString segments unstyled text.
func SegmentString(s string) Text {
	return Segment(types.StyledText{Text: s})
}

// Last returns the final segment offset.
func (t Text) Last() int {
	if len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1]
}

// Complete reports whether the text ends on a phrase boundary.
func (t Text) Complete() bool {
	return t.Last() == t.Styled.Len()
}

// CompletePhraseText returns the text up to the last phrase boundary, or the
// whole text when isComplete is set.
func (t Text) CompletePhraseText(isComplete bool) types.StyledText {
	if isComplete {
		return t.Styled
	}
	return t.Styled.Slice(0, t.Last())
}

// HasNewPhrasesFrom reports whether t ends on a different phrase boundary
// than prev.
func (t Text) HasNewPhrasesFrom(prev Text) bool {
	return t.Last() != prev.Last()
}

// Phrases returns the completed phrases as [start, end) code-point ranges.
// With isComplete set, a trailing unterminated fragment is included.
func (t Text) Phrases(isComplete bool) [][2]int {
	var out [][2]int
	for i := 1; i < len(t.Segments); i++ {
		out = append(out, [2]int{t.Segments[i-1], t.Segments[i]})
	}
	if n := t.Styled.Len(); isComplete && t.Last() < n {
		out = append(out, [2]int{t.Last(), n})
	}
	return out
}
