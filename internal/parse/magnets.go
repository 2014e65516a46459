package parse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hfcj478/Crawl-DB/internal/model"
)

// Magnets extracts the magnet entries from a work's detail page.
//
// Entries are the direct children of #magnets-content. Within each
// entry's anchor, the tag badges are the spans that are neither the
// magnet name ("name") nor the size/date line ("meta"); the size text is
// the meta span. Entries are deduplicated by URI in page order.
func (e *Extractor) Magnets(content []byte) ([]model.Magnet, error) {
	doc, err := e.document(content)
	if err != nil {
		return nil, err
	}

	root := doc.Find("#magnets-content")
	if root.Length() == 0 {
		return nil, ErrNoContainer
	}

	var magnets []model.Magnet
	root.Children().Each(func(_ int, entry *goquery.Selection) {
		anchor := entry.Find("div.magnet-name a[href^='magnet:']").First()
		if anchor.Length() == 0 {
			anchor = entry.Find("a[href^='magnet:']").First()
		}
		if anchor.Length() == 0 {
			return
		}

		var tags []string
		anchor.Find("div span").Each(func(_ int, span *goquery.Selection) {
			if span.HasClass("name") || span.HasClass("meta") {
				return
			}
			if text := strings.TrimSpace(span.Text()); text != "" {
				tags = append(tags, text)
			}
		})

		magnets = append(magnets, model.Magnet{
			URI:      strings.TrimSpace(anchor.AttrOr("href", "")),
			Tags:     tags,
			SizeText: strings.TrimSpace(anchor.Find("span.meta").First().Text()),
		})
	})

	// Some pages list bare magnet anchors outside the usual entry
	// structure; pick them up only when the structured pass found none.
	if len(magnets) == 0 {
		root.Find("a[href^='magnet:']").Each(func(_ int, a *goquery.Selection) {
			if uri := strings.TrimSpace(a.AttrOr("href", "")); uri != "" {
				magnets = append(magnets, model.Magnet{URI: uri})
			}
		})
	}

	return dedupeMagnets(magnets), nil
}

// dedupeMagnets drops repeated URIs, keeping first-seen order.
func dedupeMagnets(magnets []model.Magnet) []model.Magnet {
	seen := make(map[string]struct{}, len(magnets))
	out := magnets[:0]
	for _, m := range magnets {
		if !m.Valid() {
			continue
		}
		if _, ok := seen[m.URI]; ok {
			continue
		}
		seen[m.URI] = struct{}{}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
