package reference

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/riverfjs/mdstream-go/internal/logging"
	"github.com/riverfjs/mdstream-go/internal/types"
)

// ErrInvalidRange is returned for reference ranges that are negative,
// inverted, or past the end of the text.
var ErrInvalidRange = errors.New("invalid code point range")

// Placeholder returns the guarded inline placeholder for reference i.
func Placeholder(i int) string {
	var b strings.Builder
	b.WriteRune(ZeroWidthSpace)
	b.WriteString(bare(i))
	b.WriteRune(ZeroWidthSpace)
	return b.String()
}

func bare(i int) string {
	return string(StartDelimiter) + strconv.Itoa(i) + string(EndDelimiter)
}

// Splice replaces the range of every reference with a placeholder naming
// its index in refs. Unsupported references are replaced by their alt text
// instead. References are applied from the last to the first so earlier
// offsets stay valid; references with unknown or invalid bounds are skipped.
func Splice(text string, refs []Reference) string {
	for i := len(refs) - 1; i >= 0; i-- {
		ref := refs[i]
		if ref == nil {
			continue
		}
		start, end, ok := ref.Range()
		if !ok {
			logging.Debugf("reference %d (%s) has no bounds, skipped", i, ref.Kind())
			continue
		}

		var replacement string
		switch ref.(type) {
		case *Unsupported:
			replacement = ref.AltText()
		default:
			replacement = Placeholder(i)
		}

		out, err := ReplaceRangeByCodePoints(text, start, end, replacement)
		if err != nil {
			logging.Debugf("reference %d (%s) skipped: %v", i, ref.Kind(), err)
			continue
		}
		text = out
	}
	return text
}

// Plainify maps placeholders back to each reference's alt text, producing
// the projection used for text selection and copy.
func Plainify(text string, refs []Reference) string {
	guard := string(ZeroWidthSpace)
	for i, ref := range refs {
		alt := ""
		if ref != nil {
			alt = ref.AltText()
		}
		b := bare(i)
		if !strings.Contains(text, b) {
			continue
		}
		text = strings.ReplaceAll(text, guard+b+guard, alt)
		text = strings.ReplaceAll(text, b, alt)
	}
	return text
}

// StripContextList removes the ":::contextList" grouping markers.
func StripContextList(text string) string {
	text = strings.ReplaceAll(text, ":::contextList", "")
	return strings.ReplaceAll(text, ":::", "")
}

// TrimPartialCitation cuts text at a citation-start marker that has no
// citation-end marker after it, so a half-emitted citation never renders.
func TrimPartialCitation(text string) string {
	lastStart := strings.LastIndex(text, string(CitationStart))
	lastEnd := strings.LastIndex(text, string(CitationEnd))
	if lastStart >= 0 && lastStart > lastEnd {
		return text[:lastStart]
	}
	return text
}

// ReplaceRangeByCodePoints replaces the code-point range [start, end) of s.
// Offsets count Unicode code points, never bytes or UTF-16 units, so
// multi-byte characters are never split.
func ReplaceRangeByCodePoints(s string, start, end int, replacement string) (string, error) {
	switch {
	case start < 0 || end < 0:
		return s, fmt.Errorf("%w: negative bound [%d, %d)", ErrInvalidRange, start, end)
	case start > end:
		return s, fmt.Errorf("%w: start %d after end %d", ErrInvalidRange, start, end)
	}
	total := utf8.RuneCountInString(s)
	if end > total {
		return s, fmt.Errorf("%w: end %d > %d code points", ErrInvalidRange, end, total)
	}

	byteStart, byteEnd := types.RuneRangeToBytes(s, start, end)
	return s[:byteStart] + replacement + s[byteEnd:], nil
}
