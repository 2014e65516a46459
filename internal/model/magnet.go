package model

import (
	"regexp"
	"strconv"
	"strings"
)

// TagSeparator joins a magnet's tag list when it is serialized into a
// single database column, and splits it back on the way out.
const TagSeparator = ", "

// sizePattern matches a decimal size immediately followed by a GB unit
// token, e.g. "3.5GB" or "1.2 GB", anywhere in the free-form size text.
var sizePattern = regexp.MustCompile(`(?i)([0-9.]+)\s*GB`)

// Magnet is one candidate artifact attached to a work: a magnet link
// with the tag badges and size text shown next to it.
//
// URI is the dedup key within a work; the stored magnet set for a work
// is always a complete snapshot of the most recent fetch.
type Magnet struct {
	// URI is the magnet link itself.
	URI string

	// Tags are the badge texts attached to the link, in page order.
	Tags []string

	// SizeText is the free-form size label (e.g. "4.52GB"). It is kept
	// verbatim and parsed lazily via Size.
	SizeText string
}

// Valid reports whether the record can be stored.
func (m Magnet) Valid() bool {
	return strings.HasPrefix(m.URI, "magnet:")
}

// Size extracts the numeric gigabyte value from SizeText.
// ok is false when the text carries no parseable size; such magnets are
// excluded from best-candidate selection entirely.
func (m Magnet) Size() (float64, bool) {
	match := sizePattern.FindStringSubmatch(m.SizeText)
	if match == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// JoinTags serializes the tag list for storage.
func (m Magnet) JoinTags() string {
	return strings.Join(m.Tags, TagSeparator)
}

// SplitTags parses a serialized tag column back into a list.
// Empty input yields a nil slice.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
