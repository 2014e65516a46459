package selector

import (
	"strings"

	"github.com/hfcj478/Crawl-DB/internal/model"
)

// preferredTags are the quality markers that break size ties, in no
// particular order. Each marker counts at most once per magnet.
var preferredTags = []string{"高清", "字幕"}

// Best returns the highest-ranked magnet of a work's snapshot: largest
// declared size first, then most preferred-tag hits, then earliest
// listing position. Candidates without a parseable size are skipped;
// ok is false when no candidate qualifies.
func Best(magnets []model.Magnet) (best model.Magnet, ok bool) {
	var bestSize float64
	var bestHits int

	for _, m := range magnets {
		size, sized := m.Size()
		if !sized {
			continue
		}
		hits := tagHits(m)

		if !ok || size > bestSize || (size == bestSize && hits > bestHits) {
			best, bestSize, bestHits, ok = m, size, hits, true
		}
	}
	return best, ok
}

// tagHits counts how many preferred markers the magnet carries. Only a
// whole tag counts: badge text that merely embeds a marker, such as
// "無字幕", is not a hit.
func tagHits(m model.Magnet) int {
	hits := 0
	for _, marker := range preferredTags {
		for _, tag := range m.Tags {
			if strings.TrimSpace(tag) == marker {
				hits++
				break
			}
		}
	}
	return hits
}
