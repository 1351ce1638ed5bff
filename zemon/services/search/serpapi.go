package search

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"zemon/zemon/types"
	httputils "zemon/zemon/utils/http"
	"zemon/zemon/utils/logging"
)

const serpAPIURL = "https://serpapi.com/search.json"

type SerpAPI struct {
	BaseURL string
	apiKey  string
	client  *http.Client
}

func NewSerpAPI(apiKey string) *SerpAPI {
	return &SerpAPI{
		BaseURL: serpAPIURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type serpResponse struct {
	Error          string `json:"error"`
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}

func (s *SerpAPI) Search(ctx context.Context, query string, limit int) ([]types.SearchResult, error) {
	defer logging.LogDuration(ctx, "SerpAPI.Search")()

	params := url.Values{}
	params.Set("q", query)
	params.Set("engine", "google")
	params.Set("num", strconv.Itoa(limit))
	params.Set("api_key", s.apiKey)

	var resp serpResponse
	if err := httputils.GetJSON(ctx, s.client, s.BaseURL, params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errors.New("serpapi: " + resp.Error)
	}

	results := make([]types.SearchResult, 0, limit)
	for _, r := range resp.OrganicResults {
		if len(results) >= limit {
			break
		}
		results = append(results, types.SearchResult{
			Title:   CleanText(r.Title),
			Link:    r.Link,
			Snippet: CleanText(r.Snippet),
		})
	}
	return results, nil
}
