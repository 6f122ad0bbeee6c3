package congruence

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Enricher defaults.
const (
	DefaultSearchURL = "https://html.duckduckgo.com/html/"
	DefaultUserAgent = "Mozilla/5.0"

	// snippetRunes is the length kept from the first search snippet.
	snippetRunes = 60

	// maxSearchBody bounds the search page read.
	maxSearchBody = 2 << 20
)

// DuckDuckGoEnricher looks a code up on the DuckDuckGo HTML endpoint and
// returns the first result snippet.
type DuckDuckGoEnricher struct {
	client    *http.Client
	searchURL string
	userAgent string
}

// EnricherOption configures a DuckDuckGoEnricher.
type EnricherOption func(*DuckDuckGoEnricher)

// WithHTTPClient sets the HTTP client, e.g. one built by NewProxyHTTPClient.
func WithHTTPClient(client *http.Client) EnricherOption {
	return func(e *DuckDuckGoEnricher) {
		if client != nil {
			e.client = client
		}
	}
}

// WithSearchURL sets the search endpoint.
func WithSearchURL(u string) EnricherOption {
	return func(e *DuckDuckGoEnricher) {
		if u != "" {
			e.searchURL = u
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) EnricherOption {
	return func(e *DuckDuckGoEnricher) {
		if ua != "" {
			e.userAgent = ua
		}
	}
}

// NewDuckDuckGoEnricher creates an enricher. The request deadline comes
// from the context passed to Enrich.
func NewDuckDuckGoEnricher(opts ...EnricherOption) *DuckDuckGoEnricher {
	e := &DuckDuckGoEnricher{
		client:    &http.Client{},
		searchURL: DefaultSearchURL,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich searches for the code and returns the first snippet truncated to
// 60 characters followed by "...".
func (e *DuckDuckGoEnricher) Enrich(ctx context.Context, code string) (string, error) {
	u, err := url.Parse(e.searchURL)
	if err != nil {
		return "", fmt.Errorf("parse search url: %w", err)
	}
	q := u.Query()
	q.Set("q", "CIE-10 "+code+" enfermedad tiempo incapacidad")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxSearchBody))
	if err != nil {
		return "", fmt.Errorf("parse search page: %w", err)
	}

	snippet := firstSnippet(doc)
	if snippet == "" {
		return "", ErrNoSnippet
	}
	return truncateRunes(snippet, snippetRunes) + "...", nil
}

// firstSnippet returns the text of the first <a class="result__snippet">.
func firstSnippet(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, "result__snippet") {
		return strings.Join(strings.Fields(textContent(n)), " ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if s := firstSnippet(c); s != "" {
			return s
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
