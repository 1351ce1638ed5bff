// zemon/services/llm/llm.go
package llm

import (
	"context"
	"errors"
)

// ErrIncompleteStream is reported when a stream ends without its completion signal.
var ErrIncompleteStream = errors.New("stream ended before completion signal")

// Client is a chat-completion backend.
type Client interface {
	Run(ctx context.Context, req ChatRequest) (string, error)
	// RunStream delivers chunks in arrival order and closes the channel when the
	// stream completes, fails, or ctx is cancelled. A failure is delivered as a
	// final chunk with Err set.
	RunStream(ctx context.Context, req ChatRequest) (<-chan StreamChunk, error)
}

type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type StreamChunk struct {
	Content string
	Err     error
}

// PromptRequest wraps a single prompt as a one-message request.
func PromptRequest(model, prompt string) ChatRequest {
	return ChatRequest{
		Model:    model,
		Messages: []Message{{Role: "user", Content: prompt}},
	}
}

// send delivers a chunk unless ctx is done first.
func send(ctx context.Context, ch chan<- StreamChunk, c StreamChunk) bool {
	select {
	case ch <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
