// Package autoclose repairs inline Markdown that was cut off mid-stream.
//
// AutoClose appends the closing delimiters a truncated document is missing
// so that partial content renders as formatted text instead of showing raw
// markers, and trims openers that have nothing after them yet.
package autoclose

import (
	"unicode"
)

// openRun 是一个尚未闭合的分隔符序列
type openRun struct {
	marker rune
	length int // unmatched characters left in the run
	start  int // rune offset of the first unmatched character
	end    int // rune offset just past the run
}

type fence struct {
	marker rune
	length int
}

// AutoClose returns text with every still-open emphasis, strikethrough and
// code-span run closed in reverse order of opening. An opener with no
// content after it is removed instead. Balanced input is returned unchanged.
func AutoClose(text string) string {
	runes := []rune(text)
	stack := scan(runes)
	if len(stack) == 0 {
		return text
	}

	out := runes
	// 末尾的空开启符直接删除
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.end != len(out) || top.start+top.length != top.end {
			break
		}
		out = out[:top.start]
		stack = stack[:len(stack)-1]
	}

	out = append([]rune(nil), out...)
	for i := len(stack) - 1; i >= 0; i-- {
		run := stack[i]
		closer := repeat(run.marker, run.length)
		if run.marker == '`' {
			if len(out) > 0 && out[len(out)-1] == '`' {
				// keep the closer from merging into a longer run
				out = append(out, ' ')
			}
			out = append(out, closer...)
			continue
		}
		// 闭合符放在结尾空白之前，否则不满足右侧侧翼规则
		at := trailingSpaceStart(out)
		if at < run.end {
			at = len(out)
		}
		out = insertAt(out, at, closer)
	}
	return string(out)
}

// scan tokenizes runes and returns the runs left open at end of text.
func scan(runes []rune) []openRun {
	n := len(runes)
	var (
		stack []openRun
		open  *fence
	)

	for i := 0; i < n; {
		r := runes[i]
		lineStart := i == 0 || runes[i-1] == '\n'

		if open != nil {
			if lineStart {
				if marker, length, ok := fenceAt(runes, i); ok && marker == open.marker && length >= open.length {
					open = nil
				}
			}
			i = nextLine(runes, i)
			continue
		}

		inCode := len(stack) > 0 && stack[len(stack)-1].marker == '`'

		if lineStart && !inCode {
			if marker, length, ok := fenceAt(runes, i); ok {
				open = &fence{marker: marker, length: length}
				stack = stack[:0]
				i = nextLine(runes, i)
				continue
			}
		}

		if r == '\n' && blankLineFollows(runes, i) {
			// inline spans never cross a paragraph break
			stack = stack[:0]
			i++
			continue
		}

		if inCode {
			if r == '`' {
				k := runLength(runes, i)
				if k == stack[len(stack)-1].length {
					stack = stack[:len(stack)-1]
				}
				i += k
				continue
			}
			i++
			continue
		}

		switch r {
		case '\\':
			i += 2
			continue
		case '`':
			k := runLength(runes, i)
			stack = append(stack, openRun{marker: '`', length: k, start: i, end: i + k})
			i += k
			continue
		case '*', '_', '~':
			k := runLength(runes, i)
			stack = handleEmphasis(stack, runes, i, k)
			i += k
			continue
		}
		i++
	}
	return stack
}

// handleEmphasis classifies the run at i by its neighbours and either closes
// matching openers, pushes a new opener, or leaves it literal.
func handleEmphasis(stack []openRun, runes []rune, i, k int) []openRun {
	marker := runes[i]
	// only a double tilde delimits strikethrough
	if marker == '~' && k != 2 {
		return stack
	}

	n := len(runes)
	before, after := ' ', rune(0)
	if i > 0 {
		before = runes[i-1]
	}
	if i+k < n {
		after = runes[i+k]
	}

	// end of text counts as content still to come
	canOpen := after == 0 || !unicode.IsSpace(after)
	canClose := !unicode.IsSpace(before)
	if marker == '_' {
		if isWordRune(before) {
			canOpen = false
		}
		if after != 0 && isWordRune(after) {
			canClose = false
		}
	}

	remaining := k
	if canClose {
		for remaining > 0 {
			j := topmost(stack, marker)
			if j < 0 {
				break
			}
			if marker == '~' && stack[j].length != remaining {
				break
			}
			// unmatched openers nested inside stay literal
			stack = stack[:j+1]
			used := min(remaining, stack[j].length)
			stack[j].length -= used
			remaining -= used
			if stack[j].length == 0 {
				stack = stack[:j]
			}
		}
	}

	if remaining > 0 && canOpen {
		start := i + (k - remaining)
		stack = append(stack, openRun{marker: marker, length: remaining, start: start, end: i + k})
	}
	return stack
}

func topmost(stack []openRun, marker rune) int {
	for j := len(stack) - 1; j >= 0; j-- {
		if stack[j].marker == marker {
			return j
		}
	}
	return -1
}

// fenceAt reports whether the line starting at i opens or closes a fenced
// code block: up to three spaces, then three or more backticks or tildes.
func fenceAt(runes []rune, i int) (rune, int, bool) {
	j := i
	for j < len(runes) && j-i < 3 && runes[j] == ' ' {
		j++
	}
	if j >= len(runes) || (runes[j] != '`' && runes[j] != '~') {
		return 0, 0, false
	}
	k := runLength(runes, j)
	if k < 3 {
		return 0, 0, false
	}
	return runes[j], k, true
}

func blankLineFollows(runes []rune, i int) bool {
	for j := i + 1; j < len(runes); j++ {
		switch runes[j] {
		case '\n':
			return true
		case ' ', '\t', '\r':
			continue
		default:
			return false
		}
	}
	return false
}

func nextLine(runes []rune, i int) int {
	for i < len(runes) && runes[i] != '\n' {
		i++
	}
	return i + 1
}

func runLength(runes []rune, i int) int {
	k := 1
	for i+k < len(runes) && runes[i+k] == runes[i] {
		k++
	}
	return k
}

func trailingSpaceStart(runes []rune) int {
	i := len(runes)
	for i > 0 && unicode.IsSpace(runes[i-1]) {
		i--
	}
	return i
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func repeat(r rune, n int) []rune {
	out := make([]rune, n)
	for i := range out {
		out[i] = r
	}
	return out
}

func insertAt(runes []rune, at int, ins []rune) []rune {
	out := make([]rune, 0, len(runes)+len(ins))
	out = append(out, runes[:at]...)
	out = append(out, ins...)
	return append(out, runes[at:]...)
}
