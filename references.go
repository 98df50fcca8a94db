package mdstream

import "github.com/riverfjs/mdstream-go/internal/reference"

// 导出引用类型别名
type (
	Reference          = reference.Reference
	ReferenceKind      = reference.Kind
	ReferenceBase      = reference.Base
	Unsupported        = reference.Unsupported
	Hidden             = reference.Hidden
	URLCitation        = reference.URLCitation
	GroupedURLCitation = reference.GroupedURLCitation
	FileCitation       = reference.FileCitation
	ImageV2            = reference.ImageV2
	Title              = reference.Title
	Tldr               = reference.Tldr
	Calculator         = reference.Calculator
	NavList            = reference.NavList
	Time               = reference.Time
	Forecast           = reference.Forecast
	Video              = reference.Video
	SourcesFootnote    = reference.SourcesFootnote
)

// Reference kinds.
const (
	KindUnsupported        = reference.KindUnsupported
	KindHidden             = reference.KindHidden
	KindURLCitation        = reference.KindURLCitation
	KindGroupedURLCitation = reference.KindGroupedURLCitation
	KindFileCitation       = reference.KindFileCitation
	KindImageV2            = reference.KindImageV2
	KindTitle              = reference.KindTitle
	KindTldr               = reference.KindTldr
	KindCalculator         = reference.KindCalculator
	KindNavList            = reference.KindNavList
	KindTime               = reference.KindTime
	KindForecast           = reference.KindForecast
	KindVideo              = reference.KindVideo
	KindSourcesFootnote    = reference.KindSourcesFootnote
)

// Reserved code points.
const (
	CitationStart = reference.CitationStart
	CitationEnd   = reference.CitationEnd
)

// RefAt returns the common reference fields for the code-point range
// [start, end).
func RefAt(start, end int) ReferenceBase {
	return reference.At(start, end)
}

// ParseReferences 解析 API 返回的引用 JSON 数组
//
// 未知的 type 解码为 *Unsupported，渲染时退化为 alt 文本。
func ParseReferences(data []byte) ([]Reference, error) {
	return reference.ParseJSON(data)
}

// SpliceReferences replaces every reference range of text with its inline
// placeholder. Invalid ranges are left untouched.
func SpliceReferences(text string, refs []Reference) string {
	return reference.Splice(text, refs)
}

// Plainify replaces every placeholder with the alt text of its reference.
func Plainify(text string, refs []Reference) string {
	return reference.Plainify(text, refs)
}
