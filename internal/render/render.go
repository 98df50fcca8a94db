// Package render draws styled text to an ANSI terminal, fading each phrase
// in by blending its colour from the background towards the foreground.
package render

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"

	"github.com/riverfjs/mdstream-go/internal/types"
)

// Theme 终端配色，均为 #rrggbb
type Theme struct {
	Foreground string
	Background string
	Link       string
	Code       string
	Heading    string
	Reference  string
}

// DarkTheme and LightTheme match common terminal palettes.
var (
	DarkTheme = Theme{
		Foreground: "#e6e6e6",
		Background: "#1e1e1e",
		Link:       "#61afef",
		Code:       "#98c379",
		Heading:    "#e5c07b",
		Reference:  "#c678dd",
	}
	LightTheme = Theme{
		Foreground: "#202020",
		Background: "#fafafa",
		Link:       "#0550ae",
		Code:       "#116329",
		Heading:    "#953800",
		Reference:  "#8250df",
	}
)

// Renderer 将 StyledText 渲染为 ANSI 字符串
type Renderer struct {
	theme Theme
	width int
	lg    *lipgloss.Renderer
}

// New creates a renderer writing for out. A width <= 0 disables wrapping.
func New(out io.Writer, theme Theme, width int) *Renderer {
	return &Renderer{theme: theme, width: width, lg: lipgloss.NewRenderer(out)}
}

// SetColorProfile overrides the detected terminal colour profile.
func (r *Renderer) SetColorProfile(p termenv.Profile) {
	r.lg.SetColorProfile(p)
}

// AlphaFunc reports the opacity of the code point at offset.
type AlphaFunc func(offset int) float64

// Opaque renders everything at full opacity.
func Opaque(int) float64 { return 1 }

// PhraseAlpha maps code-point offsets to the alpha of the phrase that
// contains them, given alphas keyed by phrase start. Text before the first
// phrase is opaque.
func PhraseAlpha(alphas map[int]float64) AlphaFunc {
	starts := make([]int, 0, len(alphas))
	for s := range alphas {
		starts = append(starts, s)
	}
	sort.Ints(starts)
	return func(offset int) float64 {
		i := sort.SearchInts(starts, offset+1) - 1
		if i < 0 {
			return 1
		}
		return alphas[starts[i]]
	}
}

// Blend mixes the background towards the foreground by alpha.
func Blend(background, foreground string, alpha float64) string {
	bg, err := colorful.Hex(background)
	if err != nil {
		return foreground
	}
	fg, err := colorful.Hex(foreground)
	if err != nil {
		return foreground
	}
	alpha = min(1, max(0, alpha))
	return bg.BlendLab(fg, alpha).Clamped().Hex()
}

type runStyle struct {
	bold, italic, strike, code, link, heading bool
	ref                                       int
	alpha                                     float64
}

// Render draws st. Content references are drawn as bracketed indices.
func (r *Renderer) Render(st types.StyledText, alpha AlphaFunc) string {
	if alpha == nil {
		alpha = Opaque
	}

	var (
		out     strings.Builder
		run     strings.Builder
		current runStyle
		started bool
	)
	flush := func() {
		if run.Len() > 0 {
			out.WriteString(r.style(current).Render(run.String()))
			run.Reset()
		}
	}

	i := 0
	for _, ch := range st.Text {
		if ch == '\n' {
			flush()
			out.WriteByte('\n')
			i++
			continue
		}
		style := r.styleAt(st.Spans, i, alpha(i))
		if !started || style != current {
			flush()
			current = style
			started = true
		}
		if ch == types.ObjectReplacement && style.ref >= 0 {
			run.WriteString("[" + strconv.Itoa(style.ref+1) + "]")
		} else {
			run.WriteRune(ch)
		}
		i++
	}
	flush()

	if r.width > 0 {
		return wordwrap.String(out.String(), r.width)
	}
	return out.String()
}

func (r *Renderer) styleAt(spans []types.Span, offset int, alpha float64) runStyle {
	s := runStyle{ref: -1, alpha: alpha}
	for _, sp := range spans {
		if offset < sp.Start || offset >= sp.End {
			continue
		}
		switch sp.Style {
		case types.StyleBold:
			s.bold = true
		case types.StyleItalic:
			s.italic = true
		case types.StyleStrikethrough:
			s.strike = true
		case types.StyleCode, types.StyleCodeBlock:
			s.code = true
		case types.StyleLink:
			s.link = true
		case types.StyleHeading:
			s.heading = true
		case types.StyleReference:
			s.ref = sp.RefIndex
		}
	}
	return s
}

func (r *Renderer) style(s runStyle) lipgloss.Style {
	fg := r.theme.Foreground
	switch {
	case s.ref >= 0:
		fg = r.theme.Reference
	case s.link:
		fg = r.theme.Link
	case s.code:
		fg = r.theme.Code
	case s.heading:
		fg = r.theme.Heading
	}
	return r.lg.NewStyle().
		Foreground(lipgloss.Color(Blend(r.theme.Background, fg, s.alpha))).
		Bold(s.bold || s.heading).
		Italic(s.italic).
		Strikethrough(s.strike).
		Underline(s.link)
}
