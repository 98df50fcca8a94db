package parser

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/riverfjs/mdstream-go/internal/reference"
)

// KindContentReference is the goldmark node kind of a resolved placeholder.
var KindContentReference = ast.NewNodeKind("ContentReference")

// ContentReference 是 goldmark AST 中已解析的引用占位符
type ContentReference struct {
	ast.BaseInline
	Ref   reference.Reference
	Index int
}

// Kind implements ast.Node.
func (n *ContentReference) Kind() ast.NodeKind {
	return KindContentReference
}

// Dump implements ast.Node.
func (n *ContentReference) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Index": strconv.Itoa(n.Index),
		"Kind":  n.Ref.Kind().String(),
	}, nil)
}

var referencesKey = gparser.NewContextKey()

// References resolves reference placeholders while goldmark parses. The
// reference list travels in the parser context, see withReferences.
var References goldmark.Extender = &referenceExtension{}

type referenceExtension struct{}

func (e *referenceExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(gparser.WithASTTransformers(
		util.Prioritized(referenceTransformer{}, 100),
	))
}

func withReferences(refs []reference.Reference) gparser.ParseOption {
	pc := gparser.NewContext()
	pc.Set(referencesKey, refs)
	return gparser.WithContext(pc)
}

// referenceTransformer replaces placeholder runs inside inline text with
// ContentReference nodes. goldmark only offers inline triggers on ASCII
// punctuation, so the private-use delimiters are matched after inline
// parsing, over runs of adjacent text nodes.
type referenceTransformer struct{}

func (referenceTransformer) Transform(doc *ast.Document, reader text.Reader, pc gparser.Context) {
	refs, _ := pc.Get(referencesKey).([]reference.Reference)
	proc := reference.NewDelimiterProcessor(refs)
	source := reader.Source()

	var parents []ast.Node
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindCodeSpan, ast.KindAutoLink, ast.KindRawHTML:
			return ast.WalkSkipChildren, nil
		}
		if hasTextChild(n) {
			parents = append(parents, n)
		}
		return ast.WalkContinue, nil
	})

	for _, parent := range parents {
		for _, run := range textRuns(parent) {
			resolveRun(parent, run, proc, source)
		}
	}
}

func hasTextChild(n ast.Node) bool {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if isText(c) {
			return true
		}
	}
	return false
}

func isText(n ast.Node) bool {
	switch n.(type) {
	case *ast.Text, *ast.String:
		return true
	}
	return false
}

// textRuns groups the adjacent text children of parent. A run ends at a
// text node carrying a line break.
func textRuns(parent ast.Node) [][]ast.Node {
	var (
		runs [][]ast.Node
		cur  []ast.Node
	)
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		if !isText(c) {
			if len(cur) > 0 {
				runs = append(runs, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, c)
		if t, ok := c.(*ast.Text); ok && (t.SoftLineBreak() || t.HardLineBreak()) {
			runs = append(runs, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		runs = append(runs, cur)
	}
	return runs
}

func resolveRun(parent ast.Node, run []ast.Node, proc *reference.DelimiterProcessor, source []byte) {
	var merged strings.Builder
	for _, n := range run {
		switch t := n.(type) {
		case *ast.Text:
			merged.Write(t.Segment.Value(source))
		case *ast.String:
			merged.Write(t.Value)
		}
	}
	if !strings.ContainsRune(merged.String(), reference.StartDelimiter) {
		return
	}
	pieces := proc.Split(merged.String())
	if len(pieces) == 1 && pieces[0].Ref == nil {
		return
	}

	anchor := run[0]
	for _, piece := range pieces {
		if piece.Ref != nil {
			parent.InsertBefore(parent, anchor, &ContentReference{Ref: piece.Ref, Index: piece.Index})
			continue
		}
		if piece.Text != "" {
			parent.InsertBefore(parent, anchor, ast.NewString([]byte(piece.Text)))
		}
	}
	// 行尾换行由一个空文本节点保留
	if last, ok := run[len(run)-1].(*ast.Text); ok && (last.SoftLineBreak() || last.HardLineBreak()) {
		brk := ast.NewTextSegment(text.NewSegment(last.Segment.Stop, last.Segment.Stop))
		brk.SetSoftLineBreak(last.SoftLineBreak())
		brk.SetHardLineBreak(last.HardLineBreak())
		parent.InsertBefore(parent, anchor, brk)
	}
	for _, n := range run {
		parent.RemoveChild(parent, n)
	}
}
