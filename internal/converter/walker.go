package converter

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/riverfjs/mdstream-go/internal/buffer"
	"github.com/riverfjs/mdstream-go/internal/reference"
	"github.com/riverfjs/mdstream-go/internal/tree"
	"github.com/riverfjs/mdstream-go/internal/types"
)

// Symbols used when flattening block structure into plain text.
const (
	BulletSymbol        = "•"
	TaskCompletedSymbol = "☑"
	TaskPendingSymbol   = "☐"
	RuleSymbol          = "———"
)

// spanScope 用于跟踪未闭合的样式区间
type spanScope struct {
	style    types.Style
	start    int
	url      string
	level    int
	language string
}

// listState is nil-numbered for bullet lists.
type listState struct {
	next    *int
	ordered bool
}

// Walker 遍历节点树并生成带样式区间的纯文本
type Walker struct {
	t     *tree.Tree
	buf   *buffer.TextBuffer
	stack []spanScope
	spans []types.Span

	// Block-level state
	blockCount int // 用于段落间距
	listStack  []listState
	itemIndent string

	// Table state
	inTable     bool
	alignments  []tree.Alignment
	tableRows   [][]string
	currentRow  []string
	cellParts   []string
	inTableCell bool
}

// NewWalker 创建新的 Walker
func NewWalker(t *tree.Tree) *Walker {
	return &Walker{
		t:   t,
		buf: buffer.New(),
	}
}

// Flatten converts t into styled text.
func Flatten(t *tree.Tree) types.StyledText {
	w := NewWalker(t)
	t.Walk(t.Root(), w.Walk)
	return w.Result()
}

// Result 返回转换结果
func (w *Walker) Result() types.StyledText {
	return types.StyledText{Text: w.buf.String(), Spans: w.spans}
}

// Walk visits a single node. It is a tree.Walker.
func (w *Walker) Walk(id tree.NodeID, entering bool) tree.WalkStatus {
	n := w.t.Node(id)
	switch n.Kind {
	// --- Inline elements ---
	case tree.KindText:
		if entering {
			w.onText(n.Literal)
		}

	case tree.KindSoftBreak:
		if entering {
			w.onText(" ")
		}

	case tree.KindHardBreak:
		if entering {
			if w.inTableCell {
				w.cellParts = append(w.cellParts, " ")
			} else {
				w.buf.Write("\n")
			}
		}

	case tree.KindCode:
		if entering {
			w.onInlineCode(n.Literal)
		}

	case tree.KindEmphasis:
		w.toggle(entering, spanScope{style: types.StyleItalic})

	case tree.KindStrong:
		w.toggle(entering, spanScope{style: types.StyleBold})

	case tree.KindStrikethrough:
		w.toggle(entering, spanScope{style: types.StyleStrikethrough})

	case tree.KindLink, tree.KindImage:
		w.toggle(entering, spanScope{style: types.StyleLink, url: n.Destination})

	case tree.KindContentReference:
		if entering {
			w.onReference(n)
		}
		return tree.WalkSkipChildren

	case tree.KindHTMLInline, tree.KindHTMLBlock:
		// HTML ignored
		return tree.WalkSkipChildren

	// --- Block elements ---
	case tree.KindParagraph:
		if entering {
			w.onStartParagraph()
		} else {
			w.onEndParagraph()
		}

	case tree.KindHeading:
		if entering {
			w.ensureBlockSpacing()
			w.pushSpan(spanScope{style: types.StyleHeading, level: n.Level})
		} else {
			w.popSpan(types.StyleHeading)
			w.blockCount++
		}

	case tree.KindBlockQuote:
		if entering {
			w.ensureBlockSpacing()
			w.pushSpan(spanScope{style: types.StyleBlockquote})
		} else {
			w.popSpan(types.StyleBlockquote)
			w.blockCount++
		}

	case tree.KindList:
		if entering {
			w.onStartList(n)
		} else {
			w.onEndList()
		}

	case tree.KindListItem:
		if entering {
			w.onStartItem()
		} else {
			w.onEndItem()
		}

	case tree.KindTaskCheckBox:
		if entering {
			w.onTaskCheckBox(n.Checked)
		}

	case tree.KindCodeBlock:
		if entering {
			w.onCodeBlock(n.Literal, n.Info)
		}
		return tree.WalkSkipChildren

	case tree.KindThematicBreak:
		if entering {
			w.ensureBlockSpacing()
			w.buf.Write(RuleSymbol)
			w.blockCount++
		}

	// --- Table ---
	case tree.KindTable:
		if entering {
			w.ensureBlockSpacing()
			w.inTable = true
			w.alignments = n.Alignments
			w.tableRows = nil
		} else {
			w.onEndTable()
		}

	case tree.KindTableHeader, tree.KindTableRow:
		if entering {
			w.currentRow = nil
		} else {
			w.tableRows = append(w.tableRows, w.currentRow)
			w.currentRow = nil
		}

	case tree.KindTableCell:
		if entering {
			w.cellParts = nil
			w.inTableCell = true
		} else {
			w.currentRow = append(w.currentRow, strings.Join(w.cellParts, ""))
			w.cellParts = nil
			w.inTableCell = false
		}
	}

	return tree.WalkContinue
}

// --- Text handling ---

func (w *Walker) onText(text string) {
	if w.inTableCell {
		w.cellParts = append(w.cellParts, text)
		return
	}
	w.buf.Write(text)
}

func (w *Walker) onInlineCode(code string) {
	if w.inTableCell {
		w.cellParts = append(w.cellParts, code)
		return
	}
	start := w.buf.RuneOffset()
	w.buf.Write(code)
	w.addSpan(types.Span{Style: types.StyleCode, Start: start, End: w.buf.RuneOffset()})
}

// onReference writes an object replacement character carrying the
// reference. Hidden references take no space.
func (w *Walker) onReference(n *tree.Node) {
	if _, hidden := n.Ref.(*reference.Hidden); hidden {
		return
	}
	if w.inTableCell {
		w.cellParts = append(w.cellParts, n.Ref.AltText())
		return
	}
	start := w.buf.RuneOffset()
	w.buf.Write(string(types.ObjectReplacement))
	w.addSpan(types.Span{
		Style:    types.StyleReference,
		Start:    start,
		End:      w.buf.RuneOffset(),
		RefIndex: n.RefIndex,
	})
}

// --- Paragraph ---

func (w *Walker) onStartParagraph() {
	if len(w.listStack) == 0 {
		w.ensureBlockSpacing()
	}
}

func (w *Walker) onEndParagraph() {
	if len(w.listStack) == 0 {
		w.blockCount++
	} else if w.buf.TrailingNewlineCount() == 0 {
		// loose list 中段落结束时写入换行，避免多段落粘连
		w.buf.Write("\n")
	}
}

// --- Code block ---

func (w *Walker) onCodeBlock(code, info string) {
	code = strings.TrimSuffix(code, "\n")
	w.ensureBlockSpacing()

	lang := strings.TrimSpace(strings.Split(info, " ")[0])
	start := w.buf.RuneOffset()
	w.buf.Write(code)
	w.addSpan(types.Span{
		Style:    types.StyleCodeBlock,
		Start:    start,
		End:      w.buf.RuneOffset(),
		Language: lang,
	})
	w.blockCount++
}

// --- Lists ---

func (w *Walker) onStartList(n *tree.Node) {
	if len(w.listStack) == 0 {
		w.ensureBlockSpacing()
	}
	state := listState{ordered: n.Ordered}
	if n.Ordered {
		start := n.Start
		state.next = &start
	}
	w.listStack = append(w.listStack, state)
}

func (w *Walker) onStartItem() {
	depth := len(w.listStack)
	indent := strings.Repeat("  ", max(depth-1, 0))

	// 嵌套列表：父项文本后没有换行时，插入换行确保子项独占一行
	if w.buf.ByteOffset() > 0 && w.buf.TrailingNewlineCount() == 0 {
		w.buf.Write("\n")
	}
	w.itemIndent = indent

	if depth == 0 {
		return
	}
	current := w.listStack[depth-1]
	if current.ordered {
		num := *current.next
		w.buf.Write(fmt.Sprintf("%s%d. ", indent, num))
		*current.next = num + 1
	} else {
		// 先写 bullet，如果后面遇到 TaskCheckBox 会被替换
		w.buf.Write(indent + BulletSymbol + " ")
	}
}

func (w *Walker) onEndItem() {
	if w.buf.TrailingNewlineCount() == 0 {
		w.buf.Write("\n")
	}
}

// onTaskCheckBox 将刚写入的 bullet 替换为任务标记
func (w *Walker) onTaskCheckBox(checked bool) {
	if len(w.listStack) > 0 && !w.listStack[len(w.listStack)-1].ordered {
		w.buf.PopLast()
	} else {
		w.itemIndent = ""
	}
	symbol := TaskPendingSymbol
	if checked {
		symbol = TaskCompletedSymbol
	}
	w.buf.Write(w.itemIndent + symbol + " ")
}

func (w *Walker) onEndList() {
	if len(w.listStack) > 0 {
		w.listStack = w.listStack[:len(w.listStack)-1]
	}
	if len(w.listStack) == 0 {
		w.blockCount++
	}
}

// --- Tables ---

func (w *Walker) onEndTable() {
	w.inTable = false
	start := w.buf.RuneOffset()
	w.buf.Write(FormatTable(w.tableRows, w.alignments))
	w.addSpan(types.Span{Style: types.StyleCodeBlock, Start: start, End: w.buf.RuneOffset()})
	w.tableRows = nil
	w.alignments = nil
	w.blockCount++
}

// FormatTable lays rows out as monospace text. Column widths are measured
// in terminal cells, so wide CJK and emoji content stays aligned.
func FormatTable(rows [][]string, alignments []tree.Alignment) string {
	if len(rows) == 0 {
		return ""
	}

	numCols := 0
	for _, row := range rows {
		numCols = max(numCols, len(row))
	}
	colWidths := make([]int, numCols)
	for _, row := range rows {
		for i, cell := range row {
			colWidths[i] = max(colWidths[i], runewidth.StringWidth(cell))
		}
	}

	var lines []string
	for rowIdx, row := range rows {
		cells := make([]string, numCols)
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			align := tree.AlignNone
			if i < len(alignments) {
				align = alignments[i]
			}
			cells[i] = pad(cell, colWidths[i], align)
		}
		lines = append(lines, strings.TrimRight(strings.Join(cells, " | "), " "))

		if rowIdx == 0 && len(rows) > 1 {
			sepCells := make([]string, numCols)
			for i := range sepCells {
				sepCells[i] = strings.Repeat("-", colWidths[i])
			}
			lines = append(lines, strings.Join(sepCells, "-+-"))
		}
	}
	return strings.Join(lines, "\n")
}

func pad(cell string, width int, align tree.Alignment) string {
	gap := width - runewidth.StringWidth(cell)
	if gap <= 0 {
		return cell
	}
	switch align {
	case tree.AlignRight:
		return strings.Repeat(" ", gap) + cell
	case tree.AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + cell + strings.Repeat(" ", gap-left)
	}
	return cell + strings.Repeat(" ", gap)
}

// --- Span helpers ---

func (w *Walker) toggle(entering bool, scope spanScope) {
	if entering {
		w.pushSpan(scope)
	} else {
		w.popSpan(scope.style)
	}
}

func (w *Walker) pushSpan(scope spanScope) {
	scope.start = w.buf.RuneOffset()
	w.stack = append(w.stack, scope)
}

func (w *Walker) popSpan(style types.Style) {
	// Find the matching scope (search from top)
	for i := len(w.stack) - 1; i >= 0; i-- {
		if w.stack[i].style == style {
			scope := w.stack[i]
			w.stack = append(w.stack[:i], w.stack[i+1:]...)
			if w.inTable {
				// table cells are laid out after the walk; their inline styles are dropped
				return
			}
			w.addSpan(types.Span{
				Style:    scope.style,
				Start:    scope.start,
				End:      w.buf.RuneOffset(),
				URL:      scope.url,
				Level:    scope.level,
				Language: scope.language,
			})
			return
		}
	}
}

func (w *Walker) addSpan(span types.Span) {
	if span.Len() <= 0 || w.inTable {
		return
	}
	if span.Style != types.StyleReference {
		span.RefIndex = -1
	}
	w.spans = append(w.spans, span)
}

func (w *Walker) ensureBlockSpacing() {
	// Ensure a blank line (\n\n) between blocks, avoiding excess newlines
	if w.blockCount > 0 {
		needed := 2 - w.buf.TrailingNewlineCount()
		if needed > 0 {
			w.buf.Write(strings.Repeat("\n", needed))
		}
	}
}
