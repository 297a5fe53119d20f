
package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cron-shell/internal/models"
)

// PostLinkPattern matches an anchor pointing at /p/<slug> whose inline text
// (10 to 300 characters, no tags) follows directly. Group 1 is the href,
// group 2 the raw text. It is a heuristic over raw markup, not a parser.
const PostLinkPattern = `href="(/p/[^"]+)"[^>]*>([^<]{10,300})<`

// MaxPosts caps the number of posts returned per page.
const MaxPosts = 20

var (
	postLinkRe   = regexp.MustCompile(PostLinkPattern)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// ExtractPosts returns the post links found in a community page, in page
// order, unique by href (first occurrence wins) and capped at MaxPosts.
func ExtractPosts(body string) []models.Item {
	out := []models.Item{}
	seen := map[string]struct{}{}
	for _, m := range postLinkRe.FindAllStringSubmatch(body, -1) {
		href := m[1]
		text := strings.TrimSpace(whitespaceRe.ReplaceAllString(m[2], " "))
		if text == "" {
			continue
		}
		if _, dup := seen[href]; dup {
			continue
		}
		seen[href] = struct{}{}
		out = append(out, models.Item{Href: href, Text: text})
		if len(out) == MaxPosts {
			break
		}
	}
	return out
}

// Title returns the trimmed <title> of a page, or "" when there is none.
func Title(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(doc.Find("title").First().Text(), " "))
}
