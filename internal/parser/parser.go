package parser

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/riverfjs/mdstream-go/internal/logging"
	"github.com/riverfjs/mdstream-go/internal/reference"
	"github.com/riverfjs/mdstream-go/internal/tree"
)

// StandardExtensions goldmark 扩展配置：删除线、表格、任务列表、引用占位符
var StandardExtensions = []goldmark.Extender{
	extension.Strikethrough,
	extension.Table,
	extension.TaskList,
	References,
}

var (
	standard = goldmark.New(goldmark.WithExtensions(StandardExtensions...))
	autolink = goldmark.New(goldmark.WithExtensions(append(StandardExtensions, extension.Linkify)...))
)

// ParseAST 仅解析为 goldmark AST，不转换
//
// refs 中可解析的占位符变为 ContentReference 节点。
func ParseAST(markdown string, linkify bool, refs []reference.Reference) (ast.Node, []byte) {
	md := standard
	if linkify {
		md = autolink
	}
	source := []byte(markdown)
	return md.Parser().Parse(text.NewReader(source), withReferences(refs)), source
}

// Parse 解析 Markdown 并转换为节点树
//
// 文本中的引用占位符被替换为 ContentReference 节点；紧跟在引用节点之后的
// 软换行会被移除。
func Parse(markdown string, linkify bool, refs []reference.Reference) *tree.Tree {
	doc, source := ParseAST(markdown, linkify, refs)

	b := &builder{
		t:      tree.New(),
		source: source,
	}
	b.stack = []tree.NodeID{b.t.Root()}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		return b.walk(n, entering), nil
	})
	b.flush()

	pruneSoftBreaks(b.t)
	return b.t
}

// builder converts the goldmark AST into a tree.Tree, merging adjacent
// text nodes into one Text node.
type builder struct {
	t       *tree.Tree
	source  []byte
	stack   []tree.NodeID
	pending strings.Builder
}

func (b *builder) top() tree.NodeID {
	return b.stack[len(b.stack)-1]
}

func (b *builder) push(kind tree.Kind) *tree.Node {
	id := b.t.NewNode(kind)
	b.t.AppendChild(b.top(), id)
	b.stack = append(b.stack, id)
	return b.t.Node(id)
}

func (b *builder) leaf(kind tree.Kind) *tree.Node {
	id := b.t.NewNode(kind)
	b.t.AppendChild(b.top(), id)
	return b.t.Node(id)
}

func (b *builder) pop() {
	if len(b.stack) > 1 {
		b.stack = b.stack[:len(b.stack)-1]
	}
}

// flush emits the pending text run as one Text node.
func (b *builder) flush() {
	if b.pending.Len() == 0 {
		return
	}
	b.leaf(tree.KindText).Literal = b.pending.String()
	b.pending.Reset()
}

func (b *builder) walk(node ast.Node, entering bool) ast.WalkStatus {
	switch n := node.(type) {
	case *ast.Text:
		if entering {
			b.pending.Write(n.Segment.Value(b.source))
			if n.HardLineBreak() {
				b.flush()
				b.leaf(tree.KindHardBreak)
			} else if n.SoftLineBreak() {
				b.flush()
				b.leaf(tree.KindSoftBreak)
			}
		}
		return ast.WalkContinue
	case *ast.String:
		if entering {
			b.pending.Write(n.Value)
		}
		return ast.WalkContinue
	}

	b.flush()

	if !entering {
		if isContainer(node) {
			b.pop()
		}
		return ast.WalkContinue
	}

	switch n := node.(type) {
	case *ast.Document:
		// root already exists

	case *ast.Paragraph, *ast.TextBlock:
		b.push(tree.KindParagraph)

	case *ast.Heading:
		b.push(tree.KindHeading).Level = n.Level

	case *ast.Blockquote:
		b.push(tree.KindBlockQuote)

	case *ast.List:
		list := b.push(tree.KindList)
		list.Ordered = n.IsOrdered()
		list.Start = n.Start
		list.Tight = n.IsTight

	case *ast.ListItem:
		b.push(tree.KindListItem)

	case *ast.FencedCodeBlock:
		code := b.leaf(tree.KindCodeBlock)
		code.Literal = linesText(n, b.source)
		if n.Info != nil {
			code.Info = string(n.Info.Segment.Value(b.source))
		}
		return ast.WalkSkipChildren

	case *ast.CodeBlock:
		b.leaf(tree.KindCodeBlock).Literal = linesText(n, b.source)
		return ast.WalkSkipChildren

	case *ast.ThematicBreak:
		b.leaf(tree.KindThematicBreak)

	case *ast.HTMLBlock:
		html := linesText(n, b.source)
		if n.HasClosure() {
			html += string(n.ClosureLine.Value(b.source))
		}
		b.leaf(tree.KindHTMLBlock).Literal = html
		return ast.WalkSkipChildren

	case *ast.CodeSpan:
		b.leaf(tree.KindCode).Literal = codeSpanText(n, b.source)
		return ast.WalkSkipChildren

	case *ContentReference:
		ref := b.leaf(tree.KindContentReference)
		ref.Ref = n.Ref
		ref.RefIndex = n.Index
		return ast.WalkSkipChildren

	case *ast.Emphasis:
		if n.Level >= 2 {
			b.push(tree.KindStrong)
		} else {
			b.push(tree.KindEmphasis)
		}

	case *east.Strikethrough:
		b.push(tree.KindStrikethrough)

	case *ast.Link:
		link := b.push(tree.KindLink)
		link.Destination = string(n.Destination)
		link.Title = string(n.Title)

	case *ast.Image:
		img := b.push(tree.KindImage)
		img.Destination = string(n.Destination)
		img.Title = string(n.Title)

	case *ast.AutoLink:
		dest := string(n.URL(b.source))
		if n.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(dest), "mailto:") {
			dest = "mailto:" + dest
		}
		link := b.leaf(tree.KindLink)
		link.Destination = dest
		linkID := b.t.NewNode(tree.KindText)
		b.t.Node(linkID).Literal = string(n.Label(b.source))
		b.t.AppendChild(b.t.Node(b.top()).Links.LastChild, linkID)
		return ast.WalkSkipChildren

	case *ast.RawHTML:
		var raw strings.Builder
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			raw.Write(seg.Value(b.source))
		}
		b.leaf(tree.KindHTMLInline).Literal = raw.String()
		return ast.WalkSkipChildren

	case *east.Table:
		table := b.push(tree.KindTable)
		for _, a := range n.Alignments {
			table.Alignments = append(table.Alignments, alignment(a))
		}

	case *east.TableHeader:
		b.push(tree.KindTableHeader)

	case *east.TableRow:
		b.push(tree.KindTableRow)

	case *east.TableCell:
		b.push(tree.KindTableCell)

	case *east.TaskCheckBox:
		b.leaf(tree.KindTaskCheckBox).Checked = n.IsChecked

	default:
		logging.Debugf("parser: skipping unsupported node %s", node.Kind())
		return ast.WalkSkipChildren
	}
	return ast.WalkContinue
}

// isContainer reports whether node was pushed onto the builder stack.
func isContainer(node ast.Node) bool {
	switch node.(type) {
	case *ast.Paragraph, *ast.TextBlock, *ast.Heading, *ast.Blockquote,
		*ast.List, *ast.ListItem, *ast.Emphasis, *ast.Link, *ast.Image,
		*east.Strikethrough, *east.Table, *east.TableHeader, *east.TableRow, *east.TableCell:
		return true
	}
	return false
}

func alignment(a east.Alignment) tree.Alignment {
	switch a {
	case east.AlignLeft:
		return tree.AlignLeft
	case east.AlignCenter:
		return tree.AlignCenter
	case east.AlignRight:
		return tree.AlignRight
	}
	return tree.AlignNone
}

func linesText(n ast.Node, source []byte) string {
	var buf strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}

func codeSpanText(n *ast.CodeSpan, source []byte) string {
	var buf strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
		case *ast.String:
			buf.Write(t.Value)
		}
	}
	return buf.String()
}

// pruneSoftBreaks unlinks every soft break that directly follows a content
// reference node. References render as block-like content and the break
// would add a blank line after them.
func pruneSoftBreaks(t *tree.Tree) {
	t.Walk(t.Root(), func(id tree.NodeID, entering bool) tree.WalkStatus {
		if !entering {
			return tree.WalkContinue
		}
		n := t.Node(id)
		if n.Kind != tree.KindSoftBreak || n.Links.Previous == tree.Nil {
			return tree.WalkContinue
		}
		if t.Node(n.Links.Previous).Kind == tree.KindContentReference {
			t.Unlink(id)
		}
		return tree.WalkContinue
	})
}

// FindLinks returns the destination of every link in the tree in
// depth-first order. Duplicates are kept.
func FindLinks(t *tree.Tree) []string {
	var links []string
	t.Walk(t.Root(), func(id tree.NodeID, entering bool) tree.WalkStatus {
		if entering {
			if n := t.Node(id); n.Kind == tree.KindLink {
				links = append(links, n.Destination)
			}
		}
		return tree.WalkContinue
	})
	return links
}
