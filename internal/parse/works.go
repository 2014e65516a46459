package parse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hfcj478/Crawl-DB/internal/model"
)

// Works extracts the work cards from an actor's works listing page.
//
// Each card is a direct child of the movie-list grid: the anchor links
// the detail page, the release code sits in the video-title <strong>,
// and the remaining title text follows it.
func (e *Extractor) Works(content []byte) ([]model.Work, error) {
	doc, err := e.document(content)
	if err != nil {
		return nil, err
	}

	// The full class list varies with the column layout, so match the
	// stable prefix first and fall back to any movie-list.
	grid := doc.Find("div.movie-list.h").First()
	if grid.Length() == 0 {
		grid = doc.Find("div.movie-list").First()
	}
	if grid.Length() == 0 {
		return nil, ErrNoContainer
	}

	var works []model.Work
	grid.Children().Each(func(_ int, card *goquery.Selection) {
		a := card.Find("a[href]").First()
		if a.Length() == 0 {
			return
		}

		title := a.Find("div.video-title").First()
		code := strings.TrimSpace(title.Find("strong").First().Text())
		titleText := normalizeSpace(title.Text())
		if titleText == "" {
			titleText = code
		}

		work := model.Work{
			Code:  code,
			Title: titleText,
			Href:  e.resolve(a.AttrOr("href", "")),
		}
		if work.Valid() {
			works = append(works, work)
		}
	})
	return works, nil
}

// normalizeSpace collapses runs of whitespace into single spaces.
// Card titles span several inline nodes and carry layout whitespace.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
