// Package buffer accumulates flattened text while tracking offsets in the
// units style spans are measured in.
package buffer

import "unicode/utf16"

// mark 记录一次写入之前的偏移量，用于 PopLast 回退
type mark struct {
	bytes, runes, units int
}

// TextBuffer 累积纯文本，并同时跟踪 code point 与 UTF-16 偏移量
type TextBuffer struct {
	data  []byte
	runes int
	units int
	marks []mark
}

// New creates an empty buffer.
func New() *TextBuffer {
	return &TextBuffer{}
}

// Write appends text. Empty writes are not recorded.
func (tb *TextBuffer) Write(text string) {
	if text == "" {
		return
	}
	tb.marks = append(tb.marks, mark{bytes: len(tb.data), runes: tb.runes, units: tb.units})
	tb.data = append(tb.data, text...)
	for _, r := range text {
		tb.runes++
		tb.units += utf16.RuneLen(r)
	}
}

// RuneOffset returns the current offset in code points.
func (tb *TextBuffer) RuneOffset() int {
	return tb.runes
}

// UTF16Offset returns the current offset in UTF-16 code units.
func (tb *TextBuffer) UTF16Offset() int {
	return tb.units
}

// ByteOffset returns the current length in bytes.
func (tb *TextBuffer) ByteOffset() int {
	return len(tb.data)
}

// TrailingNewlineCount counts the newlines at the end of the buffer.
func (tb *TextBuffer) TrailingNewlineCount() int {
	n := 0
	for i := len(tb.data) - 1; i >= 0 && tb.data[i] == '\n'; i-- {
		n++
	}
	return n
}

// PopLast removes and returns the last write, e.g. a bullet that a task
// checkbox replaces.
func (tb *TextBuffer) PopLast() string {
	if len(tb.marks) == 0 {
		return ""
	}
	m := tb.marks[len(tb.marks)-1]
	tb.marks = tb.marks[:len(tb.marks)-1]
	last := string(tb.data[m.bytes:])
	tb.data = tb.data[:m.bytes]
	tb.runes, tb.units = m.runes, m.units
	return last
}

// String returns the accumulated text.
func (tb *TextBuffer) String() string {
	return string(tb.data)
}

// Reset clears the buffer, keeping its storage.
func (tb *TextBuffer) Reset() {
	tb.data = tb.data[:0]
	tb.marks = tb.marks[:0]
	tb.runes, tb.units = 0, 0
}
