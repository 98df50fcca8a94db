package reference

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/riverfjs/mdstream-go/internal/logging"
)

// Piece is one part of a text run after placeholder resolution: either a
// literal (Ref == nil) or a resolved reference.
type Piece struct {
	Text  string
	Ref   Reference
	Index int
}

// DelimiterProcessor resolves StartDelimiter/EndDelimiter placeholder runs
// against a reference list.
type DelimiterProcessor struct {
	refs []Reference
}

// NewDelimiterProcessor creates a processor for refs.
func NewDelimiterProcessor(refs []Reference) *DelimiterProcessor {
	return &DelimiterProcessor{refs: refs}
}

// Process resolves an opener run of openLen start delimiters and a closer
// run of closeLen end delimiters around body. It returns the number of
// delimiter characters consumed from each run, or 0 when the runs do not
// match: unequal run lengths, a body that is not an integer, or an index
// outside the reference list.
func (p *DelimiterProcessor) Process(openLen, closeLen int, body string) (int, Reference, int) {
	if openLen != closeLen {
		logging.Debugf("placeholder run length mismatch: %d != %d", openLen, closeLen)
		return 0, nil, -1
	}
	index, err := strconv.Atoi(body)
	if err != nil {
		logging.Debugf("placeholder body %q is not an index", body)
		return 0, nil, -1
	}
	if index < 0 || index >= len(p.refs) || p.refs[index] == nil {
		logging.Debugf("placeholder index %d out of range (%d references)", index, len(p.refs))
		return 0, nil, -1
	}
	return openLen, p.refs[index], index
}

// Split cuts text into literal pieces and resolved references. Unresolvable
// placeholders stay in the literal text. The zero-width guards around a
// resolved placeholder are consumed with it.
func (p *DelimiterProcessor) Split(text string) []Piece {
	if !strings.ContainsRune(text, StartDelimiter) {
		return []Piece{{Text: text, Index: -1}}
	}

	var (
		pieces  []Piece
		literal strings.Builder
	)
	flush := func() {
		if literal.Len() > 0 {
			pieces = append(pieces, Piece{Text: literal.String(), Index: -1})
			literal.Reset()
		}
	}

	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r != StartDelimiter {
			literal.WriteString(text[i : i+size])
			i += size
			continue
		}

		openLen, bodyStart := countRun(text, i, StartDelimiter)
		bodyEnd := strings.IndexRune(text[bodyStart:], EndDelimiter)
		if bodyEnd < 0 {
			literal.WriteString(text[i:bodyStart])
			i = bodyStart
			continue
		}
		bodyEnd += bodyStart
		body := text[bodyStart:bodyEnd]
		closeLen, next := countRun(text, bodyEnd, EndDelimiter)

		if strings.ContainsRune(body, StartDelimiter) {
			literal.WriteString(text[i:bodyStart])
			i = bodyStart
			continue
		}
		consumed, ref, index := p.Process(openLen, closeLen, body)
		if consumed == 0 {
			literal.WriteString(text[i:next])
			i = next
			continue
		}

		trimGuard(&literal)
		flush()
		pieces = append(pieces, Piece{Ref: ref, Index: index})
		if g, gs := utf8.DecodeRuneInString(text[next:]); g == ZeroWidthSpace {
			next += gs
		}
		i = next
	}
	flush()
	return pieces
}

// countRun counts consecutive delim runes starting at byte offset i and
// returns the count and the byte offset after the run.
func countRun(text string, i int, delim rune) (int, int) {
	n := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r != delim {
			break
		}
		n++
		i += size
	}
	return n, i
}

func trimGuard(b *strings.Builder) {
	s := b.String()
	guard := string(ZeroWidthSpace)
	if strings.HasSuffix(s, guard) {
		b.Reset()
		b.WriteString(strings.TrimSuffix(s, guard))
	}
}
