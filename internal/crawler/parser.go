package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Parser extracts the title and outgoing links of an HTML page.
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving relative URLs.
	baseURL *url.URL
}

// ParseResult contains the information extracted from an HTML page.
type ParseResult struct {
	// Title is the page title from the <title> tag.
	Title string

	// Links are the absolute http(s) targets of anchor, area and frame
	// elements, deduplicated, in document order.
	Links []string
}

// NewParser creates a new HTML parser with the given base URL.
// The base URL is used to resolve relative links.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse parses HTML content. x/net/html recovers from malformed markup,
// so an error means the reader itself failed.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{Links: make([]string, 0)}
	seen := make(map[string]struct{})
	base := p.baseURL

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "base":
				// A <base href> changes how later relative links resolve.
				if href := getAttr(n, "href"); href != "" {
					if u, err := url.Parse(strings.TrimSpace(href)); err == nil {
						base = p.baseURL.ResolveReference(u)
					}
				}
			case "title":
				if result.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					result.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "a", "area":
				p.addLink(result, seen, base, getAttr(n, "href"))
			case "frame", "iframe":
				p.addLink(result, seen, base, getAttr(n, "src"))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result, nil
}

func (p *Parser) addLink(result *ParseResult, seen map[string]struct{}, base *url.URL, href string) {
	resolved := resolveURL(base, href)
	if resolved == "" {
		return
	}
	if _, ok := seen[resolved]; ok {
		return
	}
	seen[resolved] = struct{}{}
	result.Links = append(result.Links, resolved)
}

// ExtractLinks parses body as HTML relative to pageURL and returns its
// title and links. Parse failures yield an empty result.
func ExtractLinks(pageURL, body string) (string, []string) {
	p, err := NewParser(pageURL)
	if err != nil {
		return "", nil
	}
	res, err := p.Parse(strings.NewReader(body))
	if err != nil {
		return "", nil
	}
	return res.Title, res.Links
}

// resolveURL resolves href against base and returns it normalized. Links
// that are not http or https resolve to "".
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return ""
	}
	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return NormalizeURL(resolved.String())
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
