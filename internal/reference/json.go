package reference

import (
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/riverfjs/mdstream-go/internal/logging"
)

// ErrMalformedJSON is returned when a reference payload is not a JSON array.
var ErrMalformedJSON = errors.New("malformed reference json")

// ParseJSON 解析 API 返回的内容引用数组
//
// 每个元素按 "type" 字段分派到对应的引用类型，未知类型降级为 Unsupported。
// 缺失的 start_idx / end_idx 保持为 nil，拼接时会被跳过。
func ParseJSON(data []byte) ([]Reference, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrMalformedJSON
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: expected array, got %s", ErrMalformedJSON, root.Type)
	}

	items := root.Array()
	refs := make([]Reference, 0, len(items))
	for _, item := range items {
		refs = append(refs, decode(item))
	}
	return refs, nil
}

func decode(r gjson.Result) Reference {
	base := decodeBase(r)
	typ := r.Get("type").String()

	switch KindFromString(typ) {
	case KindHidden:
		return &Hidden{Base: base}
	case KindURLCitation:
		c := decodeURLCitation(r)
		c.Base = base
		return &c
	case KindGroupedURLCitation:
		g := &GroupedURLCitation{Base: base}
		for _, item := range r.Get("items").Array() {
			g.Items = append(g.Items, decodeURLCitation(item))
		}
		return g
	case KindFileCitation:
		return &FileCitation{Base: base}
	case KindImageV2:
		img := &ImageV2{Base: base}
		for _, item := range r.Get("images").Array() {
			img.Images = append(img.Images, Image{
				URL:           item.Get("url").String(),
				ContentURL:    item.Get("content_url").String(),
				Title:         item.Get("title").String(),
				ThumbnailURL:  item.Get("thumbnail_url").String(),
				ThumbnailSize: decodeSize(item.Get("thumbnail_size")),
			})
		}
		return img
	case KindTitle:
		return &Title{
			Base:        base,
			Title:       r.Get("title").String(),
			Description: r.Get("description").String(),
			URL:         r.Get("url").String(),
		}
	case KindTldr:
		t := &Tldr{
			Base:         base,
			DisplayTitle: r.Get("display_title").String(),
			URL:          r.Get("url").String(),
		}
		for _, crumb := range r.Get("breadcrumbs").Array() {
			t.Breadcrumbs = append(t.Breadcrumbs, crumb.String())
		}
		return t
	case KindCalculator:
		return &Calculator{
			Base:       base,
			Expression: r.Get("expression").String(),
			Result:     r.Get("result").String(),
		}
	case KindNavList:
		nav := &NavList{Base: base, Title: r.Get("title").String()}
		for _, item := range r.Get("items").Array() {
			nav.Items = append(nav.Items, NavItem{
				Title:        item.Get("title").String(),
				URL:          item.Get("url").String(),
				ThumbnailURL: item.Get("thumbnail_url").String(),
				Attribution:  item.Get("attribution").String(),
			})
		}
		return nav
	case KindTime:
		return &Time{
			Base:      base,
			UTCTime:   decodeTime(r.Get("utc_time")),
			UTCOffset: r.Get("utc_offset").String(),
		}
	case KindForecast:
		f := &Forecast{Base: base}
		if fr := r.Get("forecast"); fr.IsObject() {
			f.Forecast = decodeForecast(fr)
		}
		return f
	case KindVideo:
		return &Video{
			Base:    base,
			URL:     r.Get("url").String(),
			VideoID: r.Get("video_id").String(),
			Title:   r.Get("title").String(),
		}
	case KindSourcesFootnote:
		return decodeSourcesFootnote(r, base)
	default:
		if typ != KindUnsupported.String() {
			logging.Debugf("unknown reference type %q decoded as unsupported", typ)
		}
		return &Unsupported{Base: base, Type: typ}
	}
}

func decodeBase(r gjson.Result) Base {
	var b Base
	if v := r.Get("start_idx"); v.Type == gjson.Number {
		start := int(v.Int())
		b.StartIdx = &start
	}
	if v := r.Get("end_idx"); v.Type == gjson.Number {
		end := int(v.Int())
		b.EndIdx = &end
	}
	b.Alt = r.Get("alt").String()
	return b
}

func decodeURLCitation(r gjson.Result) URLCitation {
	c := URLCitation{
		URL:         r.Get("url").String(),
		Title:       r.Get("title").String(),
		Attribution: r.Get("attribution").String(),
		GrayLink:    r.Get("gray_link").Bool(),
	}
	if v := r.Get("url_safe"); v.Type == gjson.True || v.Type == gjson.False {
		safe := v.Bool()
		c.URLSafe = &safe
	}
	return c
}

func decodeSize(r gjson.Result) *Size {
	if !r.IsObject() {
		return nil
	}
	return &Size{
		Width:  int(r.Get("width").Int()),
		Height: int(r.Get("height").Int()),
	}
}

func decodeTime(r gjson.Result) time.Time {
	switch r.Type {
	case gjson.Number:
		return time.Unix(r.Int(), 0).UTC()
	case gjson.String:
		t, err := time.Parse(time.RFC3339, r.String())
		if err != nil {
			logging.Debugf("unparseable utc_time %q: %v", r.String(), err)
			return time.Time{}
		}
		return t
	}
	return time.Time{}
}

func optionalFloat(r gjson.Result) *float64 {
	if r.Type != gjson.Number {
		return nil
	}
	v := r.Float()
	return &v
}

func decodeWeather(r gjson.Result) Weather {
	return Weather{
		Description: WeatherDescription{
			ID:          int(r.Get("description.id").Int()),
			Main:        r.Get("description.main").String(),
			Description: r.Get("description.description").String(),
		},
		Temperature: Temperature{
			Current: optionalFloat(r.Get("temperature.current")),
			Min:     optionalFloat(r.Get("temperature.min")),
			Max:     optionalFloat(r.Get("temperature.max")),
		},
		Timestamp:    r.Get("timestamp").Int(),
		UTCOffsetSec: r.Get("utc_offset_sec").Float(),
		Night:        r.Get("night").Bool(),
	}
}

func decodeForecast(r gjson.Result) *ForecastResponse {
	f := &ForecastResponse{
		Location: Location{
			Name:    r.Get("location.name").String(),
			State:   r.Get("location.state").String(),
			Country: r.Get("location.country").String(),
			Lat:     optionalFloat(r.Get("location.lat")),
			Lon:     optionalFloat(r.Get("location.lon")),
		},
		Current: decodeWeather(r.Get("current")),
	}
	for _, w := range r.Get("daily").Array() {
		f.Daily = append(f.Daily, decodeWeather(w))
	}
	for _, w := range r.Get("hourly").Array() {
		f.Hourly = append(f.Hourly, decodeWeather(w))
	}
	return f
}

func decodeSourcesFootnote(r gjson.Result, base Base) *SourcesFootnote {
	s := &SourcesFootnote{Base: base, HasImages: r.Get("has_images").Bool()}
	for _, src := range r.Get("sources").Array() {
		s.Sources = append(s.Sources, Source{
			Title:       src.Get("title").String(),
			URL:         src.Get("url").String(),
			Attribution: src.Get("attribution").String(),
		})
	}
	for _, group := range r.Get("search_result_groups").Array() {
		g := SearchResultGroup{Domain: group.Get("domain").String()}
		for _, e := range group.Get("entries").Array() {
			g.Entries = append(g.Entries, SearchResult{
				URL:     e.Get("url").String(),
				Title:   e.Get("title").String(),
				Snippet: e.Get("snippet").String(),
			})
		}
		s.SearchResultGroups = append(s.SearchResultGroups, g)
	}
	for _, img := range r.Get("image_results").Array() {
		s.ImageResults = append(s.ImageResults, ImageResult{
			ContentURL:    img.Get("content_url").String(),
			ThumbnailURL:  img.Get("thumbnail_url").String(),
			Title:         img.Get("title").String(),
			ThumbnailSize: decodeSize(img.Get("thumbnail_size")),
		})
	}
	return s
}
