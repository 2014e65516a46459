package parse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hfcj478/Crawl-DB/internal/model"
)

// Actors extracts the actor cards from a collection listing page.
//
// Card layout: each actor sits in a box under the #actors grid, with the
// works link on the anchor and the display name in a <strong> child
// (falling back to the anchor text when absent).
func (e *Extractor) Actors(content []byte) ([]model.Actor, error) {
	doc, err := e.document(content)
	if err != nil {
		return nil, err
	}

	grid := doc.Find("div#actors")
	if grid.Length() == 0 {
		return nil, ErrNoContainer
	}

	var actors []model.Actor
	grid.Find("div.box.actor-box").Each(func(_ int, box *goquery.Selection) {
		a := box.Find("a[href]").First()
		if a.Length() == 0 {
			return
		}

		name := strings.TrimSpace(box.Find("strong").First().Text())
		if name == "" {
			name = strings.TrimSpace(a.Text())
		}

		actor := model.Actor{
			Name: name,
			Href: e.resolve(a.AttrOr("href", "")),
		}
		if actor.Valid() && actor.Href != "" {
			actors = append(actors, actor)
		}
	})
	return actors, nil
}
