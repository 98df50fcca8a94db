package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/muesli/termenv"

	"github.com/riverfjs/mdstream-go/internal/types"
)

func newTestRenderer(width int) *Renderer {
	r := New(&bytes.Buffer{}, DarkTheme, width)
	r.SetColorProfile(termenv.TrueColor)
	return r
}

func TestBlend(t *testing.T) {
	tests := []struct {
		alpha float64
		want  string
	}{
		{0, "#000000"},
		{1, "#ffffff"},
		{-1, "#000000"},
		{2, "#ffffff"},
	}
	for _, tt := range tests {
		if got := Blend("#000000", "#ffffff", tt.alpha); got != tt.want {
			t.Errorf("Blend(alpha=%v) = %q, want %q", tt.alpha, got, tt.want)
		}
	}
	mid := Blend("#000000", "#ffffff", 0.5)
	if mid == "#000000" || mid == "#ffffff" {
		t.Errorf("Blend(0.5) = %q, want an intermediate colour", mid)
	}
	if got := Blend("nope", "#123456", 0.3); got != "#123456" {
		t.Errorf("invalid background should fall back to foreground, got %q", got)
	}
}

func TestPhraseAlpha(t *testing.T) {
	alpha := PhraseAlpha(map[int]float64{0: 1, 5: 0.5, 9: 0})
	tests := map[int]float64{0: 1, 4: 1, 5: 0.5, 8: 0.5, 9: 0, 20: 0}
	for offset, want := range tests {
		if got := alpha(offset); got != want {
			t.Errorf("alpha(%d) = %v, want %v", offset, got, want)
		}
	}
	if got := PhraseAlpha(map[int]float64{3: 0})(1); got != 1 {
		t.Errorf("offset before first phrase = %v, want 1", got)
	}
}

func TestRender_PlainTextSurvives(t *testing.T) {
	st := types.StyledText{
		Text: "Hello world\nnext",
		Spans: []types.Span{
			{Style: types.StyleBold, Start: 6, End: 11, RefIndex: -1},
		},
	}
	out := newTestRenderer(0).Render(st, nil)
	stripped := stripANSI(out)
	if stripped != "Hello world\nnext" {
		t.Errorf("stripped output = %q", stripped)
	}
	if !strings.Contains(out, "\x1b[") {
		t.Errorf("expected ANSI escapes in %q", out)
	}
}

func TestRender_Reference(t *testing.T) {
	st := types.StyledText{
		Text:  "Fact" + string(types.ObjectReplacement),
		Spans: []types.Span{{Style: types.StyleReference, Start: 4, End: 5, RefIndex: 2}},
	}
	if got := stripANSI(newTestRenderer(0).Render(st, Opaque)); got != "Fact[3]" {
		t.Errorf("rendered = %q, want %q", got, "Fact[3]")
	}
}

func TestRender_FadeChangesColour(t *testing.T) {
	st := types.StyledText{Text: "ab"}
	r := newTestRenderer(0)
	faded := r.Render(st, func(int) float64 { return 0.2 })
	full := r.Render(st, Opaque)
	if faded == full {
		t.Error("faded and opaque output should differ")
	}
}

func TestRender_Wraps(t *testing.T) {
	st := types.StyledText{Text: "one two three four"}
	out := stripANSI(newTestRenderer(9).Render(st, nil))
	for _, line := range strings.Split(out, "\n") {
		if len(strings.TrimRight(line, " ")) > 9 {
			t.Errorf("line %q exceeds width", line)
		}
	}
	if !strings.Contains(out, "\n") {
		t.Errorf("expected wrapped output, got %q", out)
	}
}

// stripANSI removes CSI escape sequences.
func stripANSI(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && (s[j] < 0x40 || s[j] > 0x7e) {
				j++
			}
			i = j
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
