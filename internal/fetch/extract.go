package fetch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	neturl "net/url"
	"regexp"
	"strings"

	trafilatura "github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// extractMainText fetches the article page and pulls out the readable text.
// Used only when a feed entry ships no content of its own and extraction is
// enabled in config. Any failure degrades to an empty string.
func (e *Engine) extractMainText(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "notefeed/1.0")
	resp, err := e.client.Do(req)
	if err != nil || resp == nil || resp.Body == nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ""
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return ""
	}
	res, err := trafilatura.Extract(bytes.NewReader(body), trafilatura.Options{
		OriginalURL:    func() *neturl.URL { u, _ := neturl.Parse(url); return u }(),
		EnableFallback: true,
		Focus:          trafilatura.Balanced,
	})
	if err != nil || res == nil {
		return ""
	}
	txt := strings.TrimSpace(res.ContentText)
	// Very short output is usually boilerplate, not the article.
	if len(txt) <= 100 {
		return ""
	}
	return txt
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// htmlToText reduces an HTML fragment from a feed entry to plain text by
// walking the node tree. Block-ish elements become paragraph breaks.
func htmlToText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	root, err := html.Parse(strings.NewReader(s))
	if err != nil || root == nil {
		out := tagPattern.ReplaceAllString(s, " ")
		return strings.Join(strings.Fields(out), " ")
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			t := strings.Join(strings.Fields(n.Data), " ")
			if t != "" {
				if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
					b.WriteString(" ")
				}
				b.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "p", "div", "br", "li", "h1", "h2", "h3", "h4", "blockquote", "pre":
				if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n\n") {
					b.WriteString("\n\n")
				}
			}
		}
	}
	walk(root)
	return strings.TrimSpace(b.String())
}
