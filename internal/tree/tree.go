// Package tree is the arena-backed Markdown node tree.
//
// Nodes live in a single slice and refer to each other by NodeID, so the
// parent/sibling/child cross-links never form pointer cycles.
package tree

import (
	"github.com/riverfjs/mdstream-go/internal/reference"
)

// NodeID 是节点在 arena 中的下标
type NodeID int

// Nil marks an absent link.
const Nil NodeID = -1

// Kind 表示节点类型
type Kind int

const (
	KindDocument Kind = iota
	KindParagraph
	KindHeading
	KindBlockQuote
	KindList
	KindListItem
	KindCodeBlock
	KindThematicBreak
	KindHTMLBlock
	KindTable
	KindTableHeader
	KindTableRow
	KindTableCell
	KindTaskCheckBox
	KindText
	KindSoftBreak
	KindHardBreak
	KindEmphasis
	KindStrong
	KindStrikethrough
	KindCode
	KindLink
	KindImage
	KindHTMLInline
	KindContentReference
)

var kindNames = [...]string{
	KindDocument:         "Document",
	KindParagraph:        "Paragraph",
	KindHeading:          "Heading",
	KindBlockQuote:       "BlockQuote",
	KindList:             "List",
	KindListItem:         "ListItem",
	KindCodeBlock:        "CodeBlock",
	KindThematicBreak:    "ThematicBreak",
	KindHTMLBlock:        "HTMLBlock",
	KindTable:            "Table",
	KindTableHeader:      "TableHeader",
	KindTableRow:         "TableRow",
	KindTableCell:        "TableCell",
	KindTaskCheckBox:     "TaskCheckBox",
	KindText:             "Text",
	KindSoftBreak:        "SoftBreak",
	KindHardBreak:        "HardBreak",
	KindEmphasis:         "Emphasis",
	KindStrong:           "Strong",
	KindStrikethrough:    "Strikethrough",
	KindCode:             "Code",
	KindLink:             "Link",
	KindImage:            "Image",
	KindHTMLInline:       "HTMLInline",
	KindContentReference: "ContentReference",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// IsBlock reports whether nodes of kind k are block-level.
func (k Kind) IsBlock() bool {
	return k <= KindTableCell
}

// Links holds all the pointers a node can have.
type Links struct {
	Parent     NodeID
	FirstChild NodeID
	LastChild  NodeID
	Previous   NodeID
	Next       NodeID
}

var noLinks = Links{Parent: Nil, FirstChild: Nil, LastChild: Nil, Previous: Nil, Next: Nil}

// Equal compares only towards the bottom-right direction (first child and
// next sibling), so comparing two linked nodes never walks back up the tree.
func (l Links) Equal(other Links) bool {
	return l.FirstChild == other.FirstChild && l.Next == other.Next
}

// Hash is consistent with Equal.
func (l Links) Hash() int {
	return int(l.FirstChild)*11 + int(l.Next)*7
}

// Alignment is a table column alignment.
type Alignment int

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Node 是树中的一个节点，字段按类型选用
type Node struct {
	Kind  Kind
	Links Links

	// Text, Code, CodeBlock, HTMLBlock, HTMLInline
	Literal string
	// Link, Image
	Destination string
	Title       string
	// Heading level
	Level int
	// CodeBlock info string
	Info string
	// List
	Ordered bool
	Start   int
	Tight   bool
	// TaskCheckBox
	Checked bool
	// Table
	Alignments []Alignment
	// ContentReference
	Ref      reference.Reference
	RefIndex int
}

// Tree 是节点 arena，下标 0 为 Document 根节点
type Tree struct {
	nodes []Node
}

// New creates a tree holding only a Document root.
func New() *Tree {
	t := &Tree{}
	t.NewNode(KindDocument)
	return t
}

// Root returns the Document node.
func (t *Tree) Root() NodeID {
	return 0
}

// Len returns the number of nodes in the arena, unlinked ones included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node for id. The pointer is valid until the next
// NewNode call.
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// NewNode allocates an unlinked node.
func (t *Tree) NewNode(kind Kind) NodeID {
	t.nodes = append(t.nodes, Node{Kind: kind, Links: noLinks, RefIndex: -1})
	return NodeID(len(t.nodes) - 1)
}

// AppendChild unlinks child and appends it as the last child of parent.
func (t *Tree) AppendChild(parent, child NodeID) {
	t.Unlink(child)
	p := &t.nodes[parent]
	c := &t.nodes[child]
	c.Links.Parent = parent
	if p.Links.LastChild != Nil {
		t.nodes[p.Links.LastChild].Links.Next = child
		c.Links.Previous = p.Links.LastChild
	} else {
		p.Links.FirstChild = child
	}
	p.Links.LastChild = child
}

// InsertAfter unlinks sibling and inserts it right after anchor.
func (t *Tree) InsertAfter(anchor, sibling NodeID) {
	t.Unlink(sibling)
	a := &t.nodes[anchor]
	s := &t.nodes[sibling]
	s.Links.Parent = a.Links.Parent
	s.Links.Previous = anchor
	s.Links.Next = a.Links.Next
	if a.Links.Next != Nil {
		t.nodes[a.Links.Next].Links.Previous = sibling
	} else if a.Links.Parent != Nil {
		t.nodes[a.Links.Parent].Links.LastChild = sibling
	}
	a.Links.Next = sibling
}

// InsertBefore unlinks sibling and inserts it right before anchor.
func (t *Tree) InsertBefore(anchor, sibling NodeID) {
	t.Unlink(sibling)
	a := &t.nodes[anchor]
	s := &t.nodes[sibling]
	s.Links.Parent = a.Links.Parent
	s.Links.Next = anchor
	s.Links.Previous = a.Links.Previous
	if a.Links.Previous != Nil {
		t.nodes[a.Links.Previous].Links.Next = sibling
	} else if a.Links.Parent != Nil {
		t.nodes[a.Links.Parent].Links.FirstChild = sibling
	}
	a.Links.Previous = sibling
}

// Unlink detaches id from its parent and siblings. Its own children stay
// attached to it.
func (t *Tree) Unlink(id NodeID) {
	n := &t.nodes[id]
	if n.Links.Previous != Nil {
		t.nodes[n.Links.Previous].Links.Next = n.Links.Next
	} else if n.Links.Parent != Nil {
		t.nodes[n.Links.Parent].Links.FirstChild = n.Links.Next
	}
	if n.Links.Next != Nil {
		t.nodes[n.Links.Next].Links.Previous = n.Links.Previous
	} else if n.Links.Parent != Nil {
		t.nodes[n.Links.Parent].Links.LastChild = n.Links.Previous
	}
	n.Links.Parent = Nil
	n.Links.Previous = Nil
	n.Links.Next = Nil
}

// Between returns the siblings strictly after from and before to. When to
// is not a later sibling of from, every sibling after from is returned.
func (t *Tree) Between(from, to NodeID) []NodeID {
	var out []NodeID
	for id := t.nodes[from].Links.Next; id != Nil && id != to; id = t.nodes[id].Links.Next {
		out = append(out, id)
	}
	return out
}

// Children returns the direct children of id in order.
func (t *Tree) Children(id NodeID) []NodeID {
	var out []NodeID
	for c := t.nodes[id].Links.FirstChild; c != Nil; c = t.nodes[c].Links.Next {
		out = append(out, c)
	}
	return out
}

// WalkStatus 控制遍历流程
type WalkStatus int

const (
	WalkContinue WalkStatus = iota
	WalkSkipChildren
	WalkStop
)

// Walker is called on entering and leaving every node.
type Walker func(id NodeID, entering bool) WalkStatus

// Walk visits the subtree rooted at id depth-first. The exit callback is
// not invoked for nodes whose children were skipped.
func (t *Tree) Walk(id NodeID, fn Walker) {
	t.walk(id, fn)
}

func (t *Tree) walk(id NodeID, fn Walker) WalkStatus {
	switch fn(id, true) {
	case WalkStop:
		return WalkStop
	case WalkSkipChildren:
		return WalkContinue
	}
	for c := t.nodes[id].Links.FirstChild; c != Nil; {
		next := t.nodes[c].Links.Next
		if t.walk(c, fn) == WalkStop {
			return WalkStop
		}
		c = next
	}
	if fn(id, false) == WalkStop {
		return WalkStop
	}
	return WalkContinue
}

// TextContent concatenates the literals of every Text and Code node below
// id.
func (t *Tree) TextContent(id NodeID) string {
	var out []byte
	t.Walk(id, func(n NodeID, entering bool) WalkStatus {
		if !entering {
			return WalkContinue
		}
		switch node := t.Node(n); node.Kind {
		case KindText, KindCode:
			out = append(out, node.Literal...)
		case KindSoftBreak, KindHardBreak:
			out = append(out, ' ')
		}
		return WalkContinue
	})
	return string(out)
}
