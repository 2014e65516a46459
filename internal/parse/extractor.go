package parse

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoContainer is returned when a page lacks the container the
// extractor expects. The usual causes are an interception page or an
// expired session; the record set is empty but the stage continues.
var ErrNoContainer = errors.New("expected container not found in page")

// Extractor parses catalog pages. The base URL resolves the relative
// hrefs the site uses on cards and pagination links.
type Extractor struct {
	base *url.URL
}

// New creates an Extractor resolving relative links against baseURL.
func New(baseURL string) (*Extractor, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	return &Extractor{base: u}, nil
}

// document parses page bytes into a goquery document.
func (e *Extractor) document(content []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

// resolve turns a possibly-relative href into an absolute URL.
// Unparseable hrefs resolve to the empty string.
func (e *Extractor) resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return e.base.ResolveReference(u).String()
}

// NextPageURL extracts the absolute URL of the "next page" link, or the
// empty string when the page has none. It prefers the pagination class
// the site uses and falls back to the link text, which survives theme
// changes better than the class name.
func (e *Extractor) NextPageURL(content []byte) (string, error) {
	doc, err := e.document(content)
	if err != nil {
		return "", err
	}

	if href, ok := doc.Find("a.pagination-next").First().Attr("href"); ok {
		return e.resolve(href), nil
	}

	var next string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if strings.Contains(a.Text(), "下一頁") {
			next = e.resolve(a.AttrOr("href", ""))
			return false
		}
		return true
	})
	return next, nil
}
