package quiz

import (
	"strings"

	"golang.org/x/net/html"
)

// hasContent reports whether an html fragment carries visible text or an
// embedded image.
func hasContent(fragment string) bool {
	if strings.TrimSpace(fragment) == "" {
		return false
	}
	z := html.NewTokenizer(strings.NewReader(fragment))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.TextToken:
			if skip == 0 && strings.TrimSpace(string(z.Text())) != "" {
				return true
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.Data {
			case "img":
				for _, attr := range tok.Attr {
					if attr.Key == "src" && strings.TrimSpace(attr.Val) != "" {
						return true
					}
				}
			case "script", "style":
				if tok.Type == html.StartTagToken {
					skip++
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if (string(name) == "script" || string(name) == "style") && skip > 0 {
				skip--
			}
		}
	}
}
