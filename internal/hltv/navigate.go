package hltv

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// The info boxes on the statistics pages label values with small-text
// spans and put the value itself in the text node that follows the
// label. These helpers keep that sibling-chain walking in one place.

// labeledText finds the small-text span with the given label inside the
// selection and returns the trimmed text immediately following it.
func labeledText(s *goquery.Selection, label string) string {
	var out string
	s.Find("span.small-text").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		if strings.TrimSpace(span.Text()) != label {
			return true
		}
		out = nextText(span)
		return false
	})
	return out
}

// nextText returns the first non-blank text node following the
// selection's node, stopping at the next element sibling.
func nextText(s *goquery.Selection) string {
	if len(s.Nodes) == 0 {
		return ""
	}
	for n := s.Nodes[0].NextSibling; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode {
			return ""
		}
		if n.Type != html.TextNode {
			continue
		}
		if t := strings.TrimSpace(n.Data); t != "" {
			return t
		}
	}
	return ""
}
