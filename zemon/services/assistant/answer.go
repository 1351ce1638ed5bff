package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"zemon/zemon/services/llm"
	"zemon/zemon/sources"
	"zemon/zemon/types"
	"zemon/zemon/utils/logging"
	utypes "zemon/zemon/utils/types"
)

const (
	AnswerText = "text"
	AnswerCode = "code"
	AnswerMath = "math"
)

// Answer produces a one-shot, non-streamed reply shaped by kind (text, code
// or math). Search problems only drop the web context.
func (a *Assistant) Answer(ctx context.Context, query, kind string) (*utypes.SearchResponse, error) {
	defer logging.LogDuration(ctx, "Assistant.Answer")()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required: %w", sources.ErrInvalid)
	}
	switch kind {
	case "":
		kind = AnswerText
	case AnswerText, AnswerCode, AnswerMath:
	default:
		return nil, fmt.Errorf("unknown type %q: %w", kind, sources.ErrInvalid)
	}

	resp := &utypes.SearchResponse{Type: kind}
	prompt := query
	if a.Classifier.NeedsSearch(ctx, query) {
		results, err := a.searchResults(ctx, query)
		if err != nil {
			logging.ErrorLogger.Error("answer search failed", zap.Error(err))
		}
		resp.WebResults = results
		if len(results) > 0 {
			b, _ := json.Marshal(results)
			prompt = fmt.Sprintf(a.Prompts.AnswerContext, string(b), query)
		}
	}

	req := llm.PromptRequest(a.Model, prompt)
	req.Temperature, req.TopP = a.Temperature, a.TopP
	out, err := a.LLM.Run(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	switch kind {
	case AnswerCode:
		resp.CodeSnippet = out
	case AnswerMath:
		resp.MathSolution = &utypes.MathSolution{
			Problem:  query,
			Solution: out,
			Steps:    nonEmptyLines(out),
		}
	default:
		resp.AIResponse = out
	}
	return resp, nil
}

func (a *Assistant) searchResults(ctx context.Context, query string) ([]types.SearchResult, error) {
	limit := a.Augmenter.Limit
	if limit <= 0 {
		limit = DefaultResultLimit
	}
	results, err := a.Augmenter.Provider.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
