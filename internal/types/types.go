package types

import (
	"sort"
	"unicode/utf8"
)

// Style 表示一个样式区间的类型
type Style string

const (
	StyleBold          Style = "bold"
	StyleItalic        Style = "italic"
	StyleStrikethrough Style = "strikethrough"
	StyleCode          Style = "code"
	StyleCodeBlock     Style = "pre"
	StyleLink          Style = "link"
	StyleHeading       Style = "heading"
	StyleBlockquote    Style = "blockquote"
	StyleReference     Style = "reference"
)

// ObjectReplacement 在纯文本中占据内容引用的位置
const ObjectReplacement = '\uFFFC'

// Span 表示样式区间，偏移量以 Unicode code point 计
type Span struct {
	Style    Style  `json:"style"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	URL      string `json:"url,omitempty"`
	Level    int    `json:"level,omitempty"`
	Language string `json:"language,omitempty"`
	// RefIndex is the index into the document's reference list for
	// StyleReference spans, -1 otherwise.
	RefIndex int `json:"ref_index"`
}

// Len returns the span length in code points.
func (s Span) Len() int {
	return s.End - s.Start
}

// ToDict 将 Span 转换为 map
func (s Span) ToDict() map[string]interface{} {
	result := map[string]interface{}{
		"style": string(s.Style),
		"start": s.Start,
		"end":   s.End,
	}
	if s.URL != "" {
		result["url"] = s.URL
	}
	if s.Level != 0 {
		result["level"] = s.Level
	}
	if s.Language != "" {
		result["language"] = s.Language
	}
	if s.Style == StyleReference {
		result["ref_index"] = s.RefIndex
	}
	return result
}

// StyledText 是带样式区间的纯文本
type StyledText struct {
	Text  string
	Spans []Span
}

// Len returns the text length in code points.
func (st StyledText) Len() int {
	return utf8.RuneCountInString(st.Text)
}

// Boundaries returns the sorted, distinct span boundaries together with 0
// and the text length. Boundaries past the end of the text are dropped.
func (st StyledText) Boundaries() []int {
	n := st.Len()
	points := make([]int, 0, 2+2*len(st.Spans))
	points = append(points, 0, n)
	for _, sp := range st.Spans {
		points = append(points, sp.Start, sp.End)
	}
	sort.Ints(points)

	out := points[:0]
	for _, p := range points {
		if p < 0 || p > n {
			continue
		}
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Slice 提取 [start, end) 子串及其重叠的样式区间，调整偏移量
func (st StyledText) Slice(start, end int) StyledText {
	n := st.Len()
	start = clamp(start, 0, n)
	end = clamp(end, start, n)

	byteStart, byteEnd := RuneRangeToBytes(st.Text, start, end)
	out := StyledText{Text: st.Text[byteStart:byteEnd]}

	for _, sp := range st.Spans {
		if sp.End <= start || sp.Start >= end {
			continue
		}
		clipped := sp
		clipped.Start = max(sp.Start, start) - start
		clipped.End = min(sp.End, end) - start
		if clipped.Len() <= 0 {
			continue
		}
		out.Spans = append(out.Spans, clipped)
	}
	return out
}

// RuneRangeToBytes translates a code-point range into byte offsets of s.
// Offsets past the end are clamped to len(s).
func RuneRangeToBytes(s string, start, end int) (int, int) {
	byteStart, byteEnd := len(s), len(s)
	idx := 0
	for i := range s {
		if idx == start {
			byteStart = i
		}
		if idx == end {
			byteEnd = i
			break
		}
		idx++
	}
	return byteStart, byteEnd
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
