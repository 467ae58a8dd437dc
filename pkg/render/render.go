// Package render turns a following list into one self-contained HTML page
// with client-side search.
package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"bilifollow/pkg/bilibili"
)

// DefaultBio is shown for accounts without a signature
const DefaultBio = "这个人很懒，什么都没有写..."

// fallbackAvatar is shown when an avatar is missing or fails to load
const fallbackAvatar = template.URL("data:image/svg+xml;base64,PHN2ZyB3aWR0aD0iNTAiIGhlaWdodD0iNTAiIHZpZXdCb3g9IjAgMCA1MCA1MCIgZmlsbD0ibm9uZSIgeG1sbnM9Imh0dHA6Ly93d3cudzMub3JnLzIwMDAvc3ZnIj48Y2lyY2xlIGN4PSIyNSIgY3k9IjI1IiByPSIyNSIgZmlsbD0iI2YwZjBmMCIvPjwvc3ZnPg==")

//go:embed template.html
var pageSource string

var pageTemplate = template.Must(template.New("page").Parse(pageSource))

// Options controls rendering
type Options struct {
	// Now is the export time shown in the header
	Now time.Time
	// Sort is one of SortModes
	Sort string
	// Filter, when set, drops entries that do not fuzzy-match it
	Filter string
	// PageSize is used to report how many API pages were read
	PageSize int
}

type card struct {
	Mid       int64
	Name      string
	Face      string
	Bio       string
	URL       string
	Followers string
	Likes     string
	Videos    string
	Level     string
	Official  string
}

type page struct {
	Date     string
	Time     string
	Total    int
	Shown    int
	Pages    int
	Enriched int
	Filter   string
	Fallback template.URL
	Cards    []card
}

// Render produces the HTML document for entries
func Render(entries []bilibili.FollowingEntry, opts Options) ([]byte, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = bilibili.MaxPageSize
	}

	shown := FilterEntries(entries, opts.Filter)
	shown, err := SortEntries(shown, opts.Sort)
	if err != nil {
		return nil, err
	}

	p := page{
		Date:     opts.Now.Format("2006-01-02"),
		Time:     opts.Now.Format("15:04:05"),
		Total:    len(entries),
		Shown:    len(shown),
		Pages:    (len(entries) + opts.PageSize - 1) / opts.PageSize,
		Filter:   opts.Filter,
		Fallback: fallbackAvatar,
		Cards:    make([]card, 0, len(shown)),
	}
	for _, e := range shown {
		c := newCard(e)
		if c.Followers != "" || c.Likes != "" || c.Videos != "" || c.Level != "" || c.Official != "" {
			p.Enriched++
		}
		p.Cards = append(p.Cards, c)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

func newCard(e bilibili.FollowingEntry) card {
	c := card{
		Mid:  e.Mid,
		Name: e.Uname,
		Face: e.Face,
		Bio:  e.Bio(),
		URL:  bilibili.SpaceURL(e.Mid),
	}
	if c.Bio == "" {
		c.Bio = DefaultBio
	}
	if e.Followers != nil {
		c.Followers = FormatCount(*e.Followers)
	}
	if e.Likes != nil {
		c.Likes = FormatCount(*e.Likes)
	}
	if e.VideoCount != nil {
		c.Videos = strconv.FormatInt(*e.VideoCount, 10)
	}
	if e.Level != nil {
		c.Level = "Lv" + strconv.Itoa(*e.Level)
	}
	if o := bilibili.CanonicalOfficial(e.Official, e.OfficialVerify); o.Verified() {
		c.Official = o.Label()
	}
	return c
}

// FormatCount abbreviates large counts the way the site does (万, 亿)
func FormatCount(n int64) string {
	switch {
	case n >= 100_000_000:
		return strconv.FormatFloat(float64(n)/100_000_000, 'f', 1, 64) + "亿"
	case n >= 10_000:
		return strconv.FormatFloat(float64(n)/10_000, 'f', 1, 64) + "万"
	default:
		return strconv.FormatInt(n, 10)
	}
}
