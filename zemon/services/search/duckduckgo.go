package search

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"

	"zemon/zemon/types"
	httputils "zemon/zemon/utils/http"
	"zemon/zemon/utils/logging"
)

const duckDuckGoURL = "https://duckduckgo.com/html/"

var httpURL = regexp.MustCompile(`^https?://`)

// DuckDuckGo scrapes the HTML results page. It needs no API key.
type DuckDuckGo struct {
	BaseURL string
	client  *http.Client
}

func NewDuckDuckGo() *DuckDuckGo {
	return &DuckDuckGo{
		BaseURL: duckDuckGoURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]types.SearchResult, error) {
	defer logging.LogDuration(ctx, "DuckDuckGo.Search")()

	params := url.Values{}
	params.Add("q", query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &httputils.StatusError{Code: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	var results []types.SearchResult
	doc.Find(".result__body").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(results) >= limit {
			return false
		}
		titleSel := s.Find(".result__title a")
		snippetSel := s.Find(".result__snippet")
		if titleSel.Length() == 0 || snippetSel.Length() == 0 {
			return true
		}
		href, exists := titleSel.Attr("href")
		if !exists {
			return true
		}
		link := resolveLink(href)
		if link == "" {
			return true
		}
		results = append(results, types.SearchResult{
			Title:   CleanText(titleSel.Text()),
			Link:    link,
			Snippet: CleanText(snippetSel.Text()),
		})
		return true
	})
	return results, nil
}

// resolveLink unwraps DuckDuckGo's redirect links (uddg=...) and keeps direct
// http(s) links as they are.
func resolveLink(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		href = target
	}
	if !httpURL.MatchString(href) {
		return ""
	}
	return href
}
