package converter

import (
	"github.com/riverfjs/mdstream-go/internal/autoclose"
	"github.com/riverfjs/mdstream-go/internal/reference"
)

// PrepareOptions controls the correction pipeline.
type PrepareOptions struct {
	// AutoClose closes inline delimiters left open by a truncated stream.
	AutoClose bool
	// AlreadyProcessed skips citation trimming and reference splicing for
	// content whose placeholders were inserted upstream.
	AlreadyProcessed bool
}

// Prepare 生成可直接交给解析器的 Markdown
//
// 顺序：截断未闭合的引用标记 → 自动闭合行内分隔符 → 拼接引用占位符。
// 引用区间以原始文本的 code point 计；闭合符只出现在文本末尾。
func Prepare(content string, refs []reference.Reference, opts PrepareOptions) string {
	text := content
	if !opts.AlreadyProcessed {
		text = reference.TrimPartialCitation(text)
	}
	if opts.AutoClose {
		text = autoclose.AutoClose(text)
	}
	if !opts.AlreadyProcessed {
		text = reference.Splice(text, refs)
	}
	return text
}

// PlainText 生成用于选择/复制的纯文本
func PlainText(corrected string, refs []reference.Reference) string {
	return reference.StripContextList(reference.Plainify(corrected, refs))
}
