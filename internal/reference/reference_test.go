package reference

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func urlCitation(start, end int, alt string) *URLCitation {
	return &URLCitation{Base: At(start, end).WithAlt(alt), URL: "https://example.com"}
}

func TestSplice(t *testing.T) {
	tests := []struct {
		name string
		text string
		refs []Reference
		want string
	}{
		{
			name: "single citation",
			text: "See here for details",
			refs: []Reference{urlCitation(4, 8, "[1]")},
			want: "See " + Placeholder(0) + " for details",
		},
		{
			name: "two references applied back to front",
			text: "abcdef",
			refs: []Reference{urlCitation(0, 1, "x"), urlCitation(4, 6, "y")},
			want: Placeholder(0) + "bcd" + Placeholder(1),
		},
		{
			name: "unsupported replaced by alt",
			text: "hello world",
			refs: []Reference{&Unsupported{Base: At(6, 11).WithAlt("earth"), Type: "mystery"}},
			want: "hello earth",
		},
		{
			name: "multibyte code points",
			text: "héllo 世界!",
			refs: []Reference{urlCitation(6, 8, "")},
			want: "héllo " + Placeholder(0) + "!",
		},
		{
			name: "unbounded reference skipped",
			text: "abc",
			refs: []Reference{&Hidden{}},
			want: "abc",
		},
		{
			name: "nil reference skipped",
			text: "abc",
			refs: []Reference{nil},
			want: "abc",
		},
		{
			name: "out of range reference skipped",
			text: "abc",
			refs: []Reference{urlCitation(1, 10, "")},
			want: "abc",
		},
		{
			name: "inverted range skipped",
			text: "abc",
			refs: []Reference{urlCitation(2, 1, "")},
			want: "abc",
		},
		{
			name: "empty range inserts",
			text: "ab",
			refs: []Reference{urlCitation(1, 1, "")},
			want: "a" + Placeholder(0) + "b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Splice(tt.text, tt.refs))
		})
	}
}

func TestPlainifyRoundTrip(t *testing.T) {
	text := "Paris is the capital【cite】 of France."
	start := strings.Index(text, "【")
	start = len([]rune(text[:start]))
	end := start + len([]rune("【cite】"))
	refs := []Reference{urlCitation(start, end, "【cite】")}

	spliced := Splice(text, refs)
	require.NotEqual(t, text, spliced)
	require.Equal(t, text, Plainify(spliced, refs))
}

func TestPlainifyBareAndMissingAlt(t *testing.T) {
	refs := []Reference{urlCitation(0, 1, ""), urlCitation(0, 1, "[2]")}
	text := "a" + bare(0) + "b" + Placeholder(1)
	require.Equal(t, "ab[2]", Plainify(text, refs))
}

func TestPlainifyIdempotent(t *testing.T) {
	refs := []Reference{urlCitation(0, 3, "one")}
	once := Plainify(Splice("abc def", refs), refs)
	require.Equal(t, once, Plainify(once, refs))
}

func TestReplaceRangeByCodePoints(t *testing.T) {
	out, err := ReplaceRangeByCodePoints("🎉ab", 1, 2, "X")
	require.NoError(t, err)
	require.Equal(t, "🎉Xb", out)

	for _, r := range [][2]int{{-1, 1}, {2, 1}, {0, 4}} {
		out, err := ReplaceRangeByCodePoints("🎉ab", r[0], r[1], "X")
		require.ErrorIs(t, err, ErrInvalidRange)
		require.Equal(t, "🎉ab", out)
	}
}

func TestTrimPartialCitation(t *testing.T) {
	cs, ce := string(CitationStart), string(CitationEnd)
	tests := []struct {
		text string
		want string
	}{
		{"plain", "plain"},
		{"done " + cs + "x" + ce, "done " + cs + "x" + ce},
		{"half " + cs + "x", "half "},
		{cs + "a" + ce + " then " + cs + "b", cs + "a" + ce + " then "},
		{ce + " stray end", ce + " stray end"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, TrimPartialCitation(tt.text))
	}
}

func TestStripContextList(t *testing.T) {
	require.Equal(t, "\nitem\n", StripContextList(":::contextList\nitem\n:::"))
}

func TestSplit(t *testing.T) {
	refs := []Reference{urlCitation(0, 1, "a"), &Hidden{Base: At(0, 1)}}
	p := NewDelimiterProcessor(refs)

	pieces := p.Split("x" + Placeholder(1) + "y")
	require.Len(t, pieces, 3)
	require.Equal(t, "x", pieces[0].Text)
	require.Nil(t, pieces[0].Ref)
	require.Same(t, refs[1], pieces[1].Ref)
	require.Equal(t, 1, pieces[1].Index)
	require.Equal(t, "y", pieces[2].Text)

	plain := p.Split("no placeholders")
	require.Equal(t, []Piece{{Text: "no placeholders", Index: -1}}, plain)
}

func TestSplitUnresolved(t *testing.T) {
	p := NewDelimiterProcessor([]Reference{urlCitation(0, 1, "")})
	s, e := string(StartDelimiter), string(EndDelimiter)

	tests := []struct {
		name string
		text string
	}{
		{"length mismatch", "a" + s + s + "0" + e + "b"},
		{"non-integer body", "a" + s + "x" + e + "b"},
		{"index out of range", "a" + s + "7" + e + "b"},
		{"unterminated", "a" + s + "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pieces := p.Split(tt.text)
			var joined strings.Builder
			for _, piece := range pieces {
				require.Nil(t, piece.Ref)
				joined.WriteString(piece.Text)
			}
			require.Equal(t, tt.text, joined.String())
		})
	}
}

func TestProcess(t *testing.T) {
	ref := urlCitation(0, 1, "")
	p := NewDelimiterProcessor([]Reference{ref})

	n, got, idx := p.Process(1, 1, "0")
	require.Equal(t, 1, n)
	require.Same(t, ref, got)
	require.Equal(t, 0, idx)

	n, _, _ = p.Process(1, 2, "0")
	require.Zero(t, n)
	n, _, _ = p.Process(1, 1, "-1")
	require.Zero(t, n)
}

func TestKindNames(t *testing.T) {
	for k := KindUnsupported; k <= KindSourcesFootnote; k++ {
		require.Equal(t, k, KindFromString(k.String()))
	}
	require.Equal(t, KindUnsupported, KindFromString("nope"))
	require.Equal(t, "unknown", Kind(99).String())
}

func TestParseJSON(t *testing.T) {
	data := []byte(`[
		{"type": "url_citation", "start_idx": 3, "end_idx": 7, "alt": "[1]",
		 "url": "https://a.example", "title": "A", "url_safe": false, "gray_link": true},
		{"type": "grouped_webpages", "start_idx": 8, "end_idx": 9,
		 "items": [{"url": "https://b.example"}, {"url": "https://c.example"}]},
		{"type": "image_v2", "start_idx": 0, "end_idx": 0,
		 "images": [{"content_url": "https://i.example/x.png", "thumbnail_size": {"width": 40, "height": 30}}]},
		{"type": "hidden", "start_idx": 10, "end_idx": 12},
		{"type": "time", "utc_time": "2024-05-01T12:00:00Z", "utc_offset": "+02:00"},
		{"type": "forecast", "forecast": {"location": {"name": "Oslo", "lat": 59.9},
		 "current": {"temperature": {"current": 4.5}, "description": {"main": "Snow"}},
		 "daily": [{}, {}]}},
		{"type": "sources_footnote", "has_images": true,
		 "sources": [{"title": "S", "url": "https://s.example"}],
		 "search_result_groups": [{"domain": "s.example", "entries": [{"url": "https://s.example/1", "snippet": "…"}]}]},
		{"type": "brand_new_widget", "start_idx": 1, "end_idx": 2, "alt": "fallback"}
	]`)

	refs, err := ParseJSON(data)
	require.NoError(t, err)
	require.Len(t, refs, 8)

	c, ok := refs[0].(*URLCitation)
	require.True(t, ok)
	start, end, bounded := c.Range()
	require.True(t, bounded)
	require.Equal(t, 3, start)
	require.Equal(t, 7, end)
	require.Equal(t, "[1]", c.AltText())
	require.NotNil(t, c.URLSafe)
	require.False(t, *c.URLSafe)
	require.True(t, c.GrayLink)

	g := refs[1].(*GroupedURLCitation)
	require.Len(t, g.Items, 2)
	require.Equal(t, "https://c.example", g.Items[1].URL)

	img := refs[2].(*ImageV2)
	require.Equal(t, &Size{Width: 40, Height: 30}, img.Images[0].ThumbnailSize)

	require.Equal(t, KindHidden, refs[3].Kind())

	tm := refs[4].(*Time)
	require.True(t, tm.UTCTime.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
	_, _, bounded = tm.Range()
	require.False(t, bounded)

	f := refs[5].(*Forecast)
	require.Equal(t, "Oslo", f.Forecast.Location.Name)
	require.InDelta(t, 4.5, *f.Forecast.Current.Temperature.Current, 1e-9)
	require.Nil(t, f.Forecast.Current.Temperature.Min)
	require.Len(t, f.Forecast.Daily, 2)

	s := refs[6].(*SourcesFootnote)
	require.True(t, s.HasImages)
	require.Equal(t, "s.example", s.SearchResultGroups[0].Domain)

	u := refs[7].(*Unsupported)
	require.Equal(t, "brand_new_widget", u.Type)
	require.Equal(t, "fallback", u.AltText())
}

func TestParseJSONMalformed(t *testing.T) {
	for _, in := range []string{`{"type": "hidden"}`, `[{"type":`, `42`} {
		_, err := ParseJSON([]byte(in))
		require.True(t, errors.Is(err, ErrMalformedJSON), in)
	}
}
