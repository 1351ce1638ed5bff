// zemon/utils/types/search.go
package types

import "zemon/zemon/types"

type SearchRequest struct {
	Query string `json:"query"`
	Type  string `json:"type"`
}

type MathSolution struct {
	Problem  string   `json:"problem"`
	Solution string   `json:"solution"`
	Steps    []string `json:"steps"`
}

type SearchResponse struct {
	Type         string               `json:"type"`
	AIResponse   string               `json:"aiResponse,omitempty"`
	CodeSnippet  string               `json:"codeSnippet,omitempty"`
	MathSolution *MathSolution        `json:"mathSolution,omitempty"`
	WebResults   []types.SearchResult `json:"webResults,omitempty"`
}
