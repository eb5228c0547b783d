package douban

import (
	"fmt"
	"regexp"
	"strings"

	errs "albumocr/pkg/errors"
	"github.com/PuerkitoBio/goquery"
)

var imageHostPattern = regexp.MustCompile(`^https://img\d\.doubanio\.com/`)

const (
	mediumSegment = "/m/"
	largeSegment  = "/l/"
)

// ImageLink is one large-resolution photo URL found on an album page
type ImageLink struct {
	// Index is the 1-based position in document order
	Index int
	URL   string
}

// IsImageHostURL reports whether src points at a Douban image host
func IsImageHostURL(src string) bool {
	return imageHostPattern.MatchString(src)
}

// LargeVariant rewrites the medium-resolution path segment to the large one
func LargeVariant(src string) string {
	return strings.ReplaceAll(src, mediumSegment, largeSegment)
}

// ExtractImageLinks returns every Douban-hosted <img> source in markup,
// rewritten to the large rendition, in document order with duplicates kept.
// pageURL is only used to tag parse errors.
func ExtractImageLinks(markup, pageURL string) ([]ImageLink, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, errs.New(errs.KindParse, pageURL, fmt.Errorf("failed to parse album page: %w", err))
	}

	links := make([]ImageLink, 0)
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if !IsImageHostURL(src) {
			return
		}
		links = append(links, ImageLink{
			Index: len(links) + 1,
			URL:   LargeVariant(src),
		})
	})

	return links, nil
}

// URLs returns just the URL strings of links
func URLs(links []ImageLink) []string {
	urls := make([]string, len(links))
	for i, l := range links {
		urls[i] = l.URL
	}
	return urls
}
