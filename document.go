package mdstream

import (
	"sync"

	"github.com/riverfjs/mdstream-go/internal/converter"
	"github.com/riverfjs/mdstream-go/internal/parser"
	"github.com/riverfjs/mdstream-go/internal/phrase"
	"github.com/riverfjs/mdstream-go/internal/tree"
)

// Document 是一份（可能尚未完整的）Markdown 文本及其内容引用
//
// 派生结果在第一次访问时计算并缓存；Document 本身不可变，可并发读取。
type Document struct {
	content          string
	refs             []Reference
	alreadyProcessed bool
	autolink         bool
	autoClose        bool

	once      sync.Once
	corrected string
	plain     string
	tree      *tree.Tree
	styled    StyledText
	seg       phrase.Text
}

// NewDocument creates a document for content. WithReferences, WithAutolink,
// WithAutoClose and WithAlreadyProcessed apply; other options are ignored.
func NewDocument(content string, opts ...Option) *Document {
	c := applyOptions(opts...)
	return newDocument(content, c.refs, c)
}

func newDocument(content string, refs []Reference, c *streamConfig) *Document {
	return &Document{
		content:          content,
		refs:             refs,
		alreadyProcessed: c.alreadyProcessed,
		autolink:         c.render.Autolink,
		autoClose:        c.render.AutoCloseInlineDelimiters,
	}
}

func (d *Document) compute() {
	d.once.Do(func() {
		d.corrected = converter.Prepare(d.content, d.refs, converter.PrepareOptions{
			AutoClose:        d.autoClose,
			AlreadyProcessed: d.alreadyProcessed,
		})
		d.plain = converter.PlainText(d.corrected, d.refs)
		d.tree = parser.Parse(d.corrected, d.autolink, d.refs)
		d.styled = converter.Flatten(d.tree)
		d.seg = phrase.Segment(d.styled)
	})
}

// Content returns the raw text the document was created with.
func (d *Document) Content() string {
	return d.content
}

// References returns the content references of the document.
func (d *Document) References() []Reference {
	return d.refs
}

// CorrectedMarkdownText 返回交给解析器的文本：截断的引用被裁掉，
// 未闭合的行内分隔符被补齐，引用区间被替换为占位符。
func (d *Document) CorrectedMarkdownText() string {
	d.compute()
	return d.corrected
}

// PlainTextForSelection returns the corrected text with every placeholder
// replaced by its reference's alt text, for copy and selection.
func (d *Document) PlainTextForSelection() string {
	d.compute()
	return d.plain
}

// FindLinks returns every link destination in depth-first order.
// Duplicates are kept.
func (d *Document) FindLinks() []string {
	d.compute()
	return parser.FindLinks(d.tree)
}

// StyledText returns the flattened text with code-point style spans.
func (d *Document) StyledText() StyledText {
	d.compute()
	return d.styled
}

// Segmentation returns the phrase boundaries of StyledText.
func (d *Document) Segmentation() Segmentation {
	d.compute()
	return d.seg
}

// Prepare 返回 content 修正后的 Markdown 文本
func Prepare(content string, refs []Reference, opts ...Option) string {
	c := applyOptions(opts...)
	return newDocument(content, refs, c).CorrectedMarkdownText()
}
