package fetcher

import (
	"strings"

	"golang.org/x/net/html"
)

const (
	minParagraphWords = 8
	minParagraphs     = 3
	minArticleChars   = 500
)

// Chrome and scripts never hold article text.
var skipTags = map[string]bool{
	"nav": true, "header": true, "footer": true, "aside": true,
	"script": true, "style": true, "noscript": true,
}

// extractArticle collects <p> paragraphs outside page chrome. Paragraphs
// shorter than minParagraphWords are dropped; the result is empty unless
// enough text remains to call the page an article.
func extractArticle(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var paragraphs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipTags[n.Data] {
				return
			}
			if n.Data == "p" {
				var sb strings.Builder
				collectText(n, &sb)
				p := strings.Join(strings.Fields(sb.String()), " ")
				if len(strings.Fields(p)) >= minParagraphWords {
					paragraphs = append(paragraphs, p)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	joined := strings.Join(paragraphs, "\n\n")
	if len(paragraphs) < minParagraphs || len(joined) < minArticleChars {
		return ""
	}
	return joined
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode && skipTags[n.Data] {
		return
	}
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
