package assistant

import (
	"context"
	"fmt"
	"strings"

	"zemon/zemon/services/search"
	"zemon/zemon/types"
	"zemon/zemon/utils/logging"
)

const (
	ResearchHeader = "🔍 Research Summary:"
	SourcesHeader  = "Sources:"

	DefaultResultLimit = 3
)

// Augmentation is the search context folded into a prompt.
type Augmentation struct {
	Summary []string
	Sources []types.SearchResult
}

func (a Augmentation) Empty() bool {
	return len(a.Summary) == 0
}

// Text renders the research block renderers look for. The layout is fixed.
func (a Augmentation) Text() string {
	if a.Empty() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(ResearchHeader + "\n")
	for _, s := range a.Summary {
		sb.WriteString("- " + s + "\n")
	}
	sb.WriteString("\n" + SourcesHeader + "\n")
	for i, r := range a.Sources {
		fmt.Fprintf(&sb, "[%d] %s\nLink: %s\n", i+1, r.Title, r.Link)
	}
	return sb.String()
}

func (a Augmentation) Context() *types.SearchContext {
	if a.Empty() {
		return nil
	}
	return &types.SearchContext{Summary: a.Summary, Sources: a.Sources}
}

type Augmenter struct {
	Provider search.Provider
	Limit    int
}

// Augment runs one search. Provider errors are returned to the caller.
func (a *Augmenter) Augment(ctx context.Context, query string) (Augmentation, error) {
	defer logging.LogDuration(ctx, "Augmenter.Augment")()

	limit := a.Limit
	if limit <= 0 {
		limit = DefaultResultLimit
	}
	results, err := a.Provider.Search(ctx, query, limit)
	if err != nil {
		return Augmentation{}, fmt.Errorf("web search: %w", err)
	}
	if len(results) > limit {
		results = results[:limit]
	}

	var aug Augmentation
	for _, r := range results {
		if s := strings.TrimSpace(r.Snippet); s != "" {
			aug.Summary = append(aug.Summary, s)
		}
	}
	if aug.Empty() {
		return Augmentation{}, nil
	}
	aug.Sources = results
	return aug, nil
}
