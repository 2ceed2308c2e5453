package enrich

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// pageInfo is what the page itself declares.
type pageInfo struct {
	Title string
	Icon  string
}

// parsePage extracts the <title> text and the best <link> icon href.
// A rel containing "icon" wins over apple-touch-icon.
func parsePage(r io.Reader) (pageInfo, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return pageInfo{}, err
	}

	var info pageInfo
	var touchIcon string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if info.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					info.Title = strings.Join(strings.Fields(n.FirstChild.Data), " ")
				}
			case "link":
				rel, href := linkAttrs(n)
				if href != "" {
					switch {
					case hasRel(rel, "icon") && info.Icon == "":
						info.Icon = href
					case hasRel(rel, "apple-touch-icon") && touchIcon == "":
						touchIcon = href
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	if info.Icon == "" {
		info.Icon = touchIcon
	}
	return info, nil
}

func linkAttrs(n *html.Node) (rel, href string) {
	for _, attr := range n.Attr {
		switch strings.ToLower(attr.Key) {
		case "rel":
			rel = strings.ToLower(attr.Val)
		case "href":
			href = strings.TrimSpace(attr.Val)
		}
	}
	return rel, href
}

// hasRel reports whether the space separated rel list contains token.
func hasRel(rel, token string) bool {
	for _, f := range strings.Fields(rel) {
		if f == token {
			return true
		}
	}
	return false
}
