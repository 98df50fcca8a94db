// Package reference models out-of-band content references (citations,
// images, widgets) anchored to code-point ranges of streamed Markdown, and
// rewrites them into placeholders the Markdown parser can tokenize.
package reference

import "time"

// Reserved code points. None of them may appear in user content.
const (
	// StartDelimiter opens a reference placeholder.
	StartDelimiter = '\uEA01'
	// EndDelimiter closes a reference placeholder.
	EndDelimiter = '\uEA02'
	// CitationStart is emitted by the model where a citation begins.
	CitationStart = '\uE200'
	// CitationEnd is emitted by the model where a citation ends.
	CitationEnd = '\uE201'
	// ZeroWidthSpace guards placeholders against merging with adjacent words.
	ZeroWidthSpace = '\u200B'
)

// Kind 表示内容引用的类型
type Kind int

const (
	KindUnsupported Kind = iota
	KindHidden
	KindURLCitation
	KindGroupedURLCitation
	KindFileCitation
	KindImageV2
	KindTitle
	KindTldr
	KindCalculator
	KindNavList
	KindTime
	KindForecast
	KindVideo
	KindSourcesFootnote
)

var kindNames = [...]string{
	KindUnsupported:        "unsupported",
	KindHidden:             "hidden",
	KindURLCitation:        "url_citation",
	KindGroupedURLCitation: "grouped_webpages",
	KindFileCitation:       "file_citation",
	KindImageV2:            "image_v2",
	KindTitle:              "title_citation",
	KindTldr:               "tldr",
	KindCalculator:         "calculator",
	KindNavList:            "nav_list",
	KindTime:               "time",
	KindForecast:           "forecast",
	KindVideo:              "video",
	KindSourcesFootnote:    "sources_footnote",
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// KindFromString maps a wire name to its Kind. Unknown names map to
// KindUnsupported.
func KindFromString(s string) Kind {
	for k, name := range kindNames {
		if name == s {
			return Kind(k)
		}
	}
	return KindUnsupported
}

// Reference is a content reference. The set of implementations is closed:
// switch over the concrete types with a default arm for *Unsupported.
type Reference interface {
	Kind() Kind
	// Range returns the half-open code-point range [start, end) the
	// reference replaces. ok is false when either bound is unknown.
	Range() (start, end int, ok bool)
	// AltText returns the plain-text fallback, or "" when absent.
	AltText() string
	sealed()
}

// Base carries the fields shared by every reference kind.
type Base struct {
	StartIdx *int
	EndIdx   *int
	Alt      string
}

// At returns a Base spanning [start, end).
func At(start, end int) Base {
	return Base{StartIdx: &start, EndIdx: &end}
}

// WithAlt returns a copy of b with the given alt text.
func (b Base) WithAlt(alt string) Base {
	b.Alt = alt
	return b
}

func (b Base) Range() (int, int, bool) {
	if b.StartIdx == nil || b.EndIdx == nil {
		return 0, 0, false
	}
	return *b.StartIdx, *b.EndIdx, true
}

func (b Base) AltText() string { return b.Alt }

func (Base) sealed() {}

// Unsupported is a reference kind this package does not know. It degrades
// to its alt text.
type Unsupported struct {
	Base
	Type string
}

// Hidden references occupy their range but render nothing.
type Hidden struct {
	Base
}

type URLCitation struct {
	Base
	URL         string
	Title       string
	Attribution string
	// URLSafe: true skips the safe-url check, false marks the url unsafe,
	// nil defers to the safe-url list.
	URLSafe  *bool
	GrayLink bool
}

type GroupedURLCitation struct {
	Base
	Items []URLCitation
}

type FileCitation struct {
	Base
}

// Size is a pixel size.
type Size struct {
	Width  int
	Height int
}

type Image struct {
	URL           string
	ContentURL    string
	Title         string
	ThumbnailURL  string
	ThumbnailSize *Size
}

type ImageV2 struct {
	Base
	Images []Image
}

type Title struct {
	Base
	Title       string
	Description string
	URL         string
}

type Tldr struct {
	Base
	DisplayTitle string
	URL          string
	Breadcrumbs  []string
}

type Calculator struct {
	Base
	Expression string
	Result     string
}

type NavItem struct {
	Title        string
	URL          string
	ThumbnailURL string
	Attribution  string
}

type NavList struct {
	Base
	Title string
	Items []NavItem
}

type Time struct {
	Base
	UTCTime   time.Time
	UTCOffset string
}

type Location struct {
	Name    string
	State   string
	Country string
	Lat     *float64
	Lon     *float64
}

type WeatherDescription struct {
	ID          int
	Main        string
	Description string
}

// Temperature values are in celsius.
type Temperature struct {
	Current *float64
	Min     *float64
	Max     *float64
}

type Weather struct {
	Description  WeatherDescription
	Temperature  Temperature
	Timestamp    int64
	UTCOffsetSec float64
	Night        bool
}

type ForecastResponse struct {
	Location Location
	Current  Weather
	Daily    []Weather
	Hourly   []Weather
}

type Forecast struct {
	Base
	Forecast *ForecastResponse
}

type Video struct {
	Base
	URL     string
	VideoID string
	Title   string
}

type Source struct {
	Title       string
	URL         string
	Attribution string
}

type SearchResult struct {
	URL     string
	Title   string
	Snippet string
}

type SearchResultGroup struct {
	Domain  string
	Entries []SearchResult
}

type ImageResult struct {
	ContentURL    string
	ThumbnailURL  string
	Title         string
	ThumbnailSize *Size
}

type SourcesFootnote struct {
	Base
	HasImages          bool
	Sources            []Source
	SearchResultGroups []SearchResultGroup
	ImageResults       []ImageResult
}

func (*Unsupported) Kind() Kind        { return KindUnsupported }
func (*Hidden) Kind() Kind             { return KindHidden }
func (*URLCitation) Kind() Kind        { return KindURLCitation }
func (*GroupedURLCitation) Kind() Kind { return KindGroupedURLCitation }
func (*FileCitation) Kind() Kind       { return KindFileCitation }
func (*ImageV2) Kind() Kind            { return KindImageV2 }
func (*Title) Kind() Kind              { return KindTitle }
func (*Tldr) Kind() Kind               { return KindTldr }
func (*Calculator) Kind() Kind         { return KindCalculator }
func (*NavList) Kind() Kind            { return KindNavList }
func (*Time) Kind() Kind               { return KindTime }
func (*Forecast) Kind() Kind           { return KindForecast }
func (*Video) Kind() Kind              { return KindVideo }
func (*SourcesFootnote) Kind() Kind    { return KindSourcesFootnote }
