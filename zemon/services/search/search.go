// zemon/services/search/search.go
package search

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"zemon/zemon/types"
)

// Provider returns up to limit organic results for query.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]types.SearchResult, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, query string, limit int) ([]types.SearchResult, error)

func (f ProviderFunc) Search(ctx context.Context, query string, limit int) ([]types.SearchResult, error) {
	return f(ctx, query, limit)
}

// CleanText turns an HTML fragment into plain text with collapsed whitespace.
func CleanText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	var sb strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(doc)
	return strings.Join(strings.Fields(sb.String()), " ")
}
