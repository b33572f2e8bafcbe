package resolve

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

const (
	defaultUserAgent = "Mozilla/5.0 (compatible; promo-thread-bot/1.0)"
	maxPageBytes     = 5 * 1024 * 1024
)

// PageFetcher downloads HTML pages for scraping resolvers.
type PageFetcher struct {
	Client    *http.Client
	UserAgent string
}

func (f *PageFetcher) http() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

// Fetch GETs rawURL and returns at most 5 MiB of its body.
func (f *PageFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrFetch, err)
	}
	ua := f.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	resp, err := f.http().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: %s", ErrFetch, rawURL, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}
	return body, nil
}

// Page is a parsed HTML document with the few lookups resolvers need.
type Page struct {
	root *html.Node
}

// ParsePage parses raw HTML.
func ParsePage(raw []byte) (*Page, error) {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Page{root: doc}, nil
}

// Title returns the text of the first <title> element.
func (p *Page) Title() string {
	n := p.find(func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == "title" })
	if n == nil {
		return ""
	}
	return textContent(n)
}

// MetaDescription returns the content of <meta name="description">. Entities are
// already decoded by the parser.
func (p *Page) MetaDescription() string {
	n := p.find(func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "meta" && strings.EqualFold(attr(n, "name"), "description")
	})
	if n == nil {
		return ""
	}
	return attr(n, "content")
}

// ClassText returns the text of the first element carrying class, or "".
func (p *Page) ClassText(class string) string {
	n := p.find(func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, c := range strings.Fields(attr(n, "class")) {
			if c == class {
				return true
			}
		}
		return false
	})
	if n == nil {
		return ""
	}
	return textContent(n)
}

func (p *Page) find(match func(*html.Node) bool) *html.Node {
	var walk func(*html.Node) *html.Node
	walk = func(n *html.Node) *html.Node {
		if match(n) {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := walk(c); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(p.root)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// fetchPage is shared by the scraping resolvers.
func fetchPage(ctx context.Context, f *PageFetcher, rawURL string) (*Page, error) {
	if f == nil {
		f = &PageFetcher{}
	}
	raw, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return ParsePage(raw)
}
