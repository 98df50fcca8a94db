package mdstream

import (
	"unicode/utf16"
	"unicode/utf8"

	"github.com/riverfjs/mdstream-go/internal/phrase"
	"github.com/riverfjs/mdstream-go/internal/types"
)

// 导出样式类型别名
type (
	Style      = types.Style
	Span       = types.Span
	StyledText = types.StyledText
)

// Styles.
const (
	StyleBold          = types.StyleBold
	StyleItalic        = types.StyleItalic
	StyleStrikethrough = types.StyleStrikethrough
	StyleCode          = types.StyleCode
	StyleCodeBlock     = types.StyleCodeBlock
	StyleLink          = types.StyleLink
	StyleHeading       = types.StyleHeading
	StyleBlockquote    = types.StyleBlockquote
	StyleReference     = types.StyleReference
)

// ObjectReplacement stands in for a content reference in flattened text.
const ObjectReplacement = types.ObjectReplacement

// Segmentation 是短语分段结果
type Segmentation = phrase.Text

// IsPhraseMarker reports whether r ends a phrase.
func IsPhraseMarker(r rune) bool {
	return phrase.IsMarker(r)
}

// SplitPhrases 计算带样式文本的短语边界
//
// 返回的偏移量以 code point 计，第一个总是 0，严格递增。
func SplitPhrases(st StyledText) Segmentation {
	return phrase.Segment(st)
}

// CodePointLen returns the number of code points in text.
func CodePointLen(text string) int {
	return utf8.RuneCountInString(text)
}

// UTF16Len 计算文本的 UTF-16 长度
//
// 面向按 16 位码元索引的渲染层。
func UTF16Len(text string) int {
	count := 0
	for _, r := range text {
		count += utf16.RuneLen(r)
	}
	return count
}

// CodePointToUTF16 converts a code-point offset into text to a UTF-16 offset.
// Offsets past the end map to the UTF-16 length of text.
func CodePointToUTF16(text string, offset int) int {
	count, i := 0, 0
	for _, r := range text {
		if i >= offset {
			break
		}
		count += utf16.RuneLen(r)
		i++
	}
	return count
}

// SpansToUTF16 returns a copy of spans with offsets measured in UTF-16 code
// units of text.
func SpansToUTF16(text string, spans []Span) []Span {
	out := make([]Span, len(spans))
	for i, sp := range spans {
		sp.Start = CodePointToUTF16(text, sp.Start)
		sp.End = CodePointToUTF16(text, sp.End)
		out[i] = sp
	}
	return out
}
