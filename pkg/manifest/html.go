package manifest

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"skybox-manifest/internal/domain/entity"
)

const (
	htmlLoadPrefix   = "jumpermanifest-load-"
	htmlLoadSelector = "[id^='" + htmlLoadPrefix + "']"
)

// dateLayouts are tried in order against the page date label
var dateLayouts = []string{
	"Monday, January 2, 2006",
	"Monday, 2 January 2006",
	"Monday January 2, 2006",
	"Monday, January 2 2006",
	"Mon, Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
	"2006-01-02",
}

// HTMLStrategy reads the public manifest page, one element per load
type HTMLStrategy struct{}

// NewHTMLStrategy creates the HTML page strategy
func NewHTMLStrategy() *HTMLStrategy {
	return &HTMLStrategy{}
}

// Version implements Strategy
func (s *HTMLStrategy) Version() string {
	return "html"
}

// DataRequest fetches the manifest page itself
func (s *HTMLStrategy) DataRequest(ctx context.Context, target Target, today string) (*http.Request, error) {
	u := fmt.Sprintf("%s/jmp?dz_id=%s", target.BaseURL, url.QueryEscape(target.DZID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	return req, nil
}

// Split implements Strategy
func (s *HTMLStrategy) Split(body []byte, today string) ([]RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}

	date := ParsePageDate(doc.Find(".dt-date").First().Text(), today)

	var records []RawRecord
	doc.Find(htmlLoadSelector).Each(func(_ int, sel *goquery.Selection) {
		fragment, err := goquery.OuterHtml(sel)
		if err != nil {
			return
		}
		records = append(records, RawRecord{Date: date, Body: []byte(fragment)})
	})

	return records, nil
}

// Extract implements Strategy
func (s *HTMLStrategy) Extract(rec RawRecord) (*Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rec.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	load := doc.Find(htmlLoadSelector).First()
	if load.Length() == 0 {
		return nil, fmt.Errorf("%w: no load element", ErrMalformedRecord)
	}

	id, _ := load.Attr("id")
	header := load.Find(".load-toolbar table td").First()

	out := &Record{
		ExternalID:     strings.TrimSpace(strings.TrimPrefix(id, htmlLoadPrefix)),
		Status:         cleanText(load.Find(".load-info-mins").First().Text()),
		Aircraft:       cleanText(header.Find("span").First().Text()),
		SequenceNumber: ParseSequence(cleanText(header.Find(".load-info-big b").First().Text())),
		LoadMaster:     optional(cleanText(load.Find(".ex-info td div[style*='float']").First().Text())),
		Date:           rec.Date,
	}

	if slots := load.Find(".load-info-slots").First(); slots.Length() > 0 {
		out.OpenSlots = parseCount(slots.Text())
	}

	load.Find("table.is-sj, table.is-student").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("tr td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, cleanText(td.Text()))
		})
		if jumper, ok := jumperFromCells(cells); ok {
			out.Jumpers = append(out.Jumpers, jumper)
		}
	})

	return out, nil
}

// jumperFromCells maps a jumper row. Rows with six or more cells carry a group
// column (name, type, group, formation, rig, ...); shorter rows do not.
func jumperFromCells(cells []string) (entity.Jumper, bool) {
	if len(cells) == 0 || cells[0] == "" {
		return entity.Jumper{}, false
	}

	cell := func(i int) *string {
		if i >= len(cells) {
			return nil
		}
		v := cells[i]
		return &v
	}

	j := entity.Jumper{Name: cells[0], Type: cell(1)}
	if len(cells) >= 6 {
		j.GroupName = cell(2)
		j.Formation = cell(3)
		j.Rig = cell(4)
	} else {
		j.Formation = cell(2)
		j.Rig = cell(3)
	}
	return j, true
}

// ParsePageDate reads a free-text date label such as " - Saturday, February 28,
// 2026" and returns it as YYYY-MM-DD, or today when it cannot be parsed.
func ParsePageDate(label, today string) string {
	raw := strings.TrimSpace(strings.TrimLeft(cleanText(label), "-– "))
	if raw == "" {
		return today
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(entity.DateLayout)
		}
	}
	return today
}
