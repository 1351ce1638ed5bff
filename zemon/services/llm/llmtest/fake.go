// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"sync"

	"zemon/zemon/services/llm"
)

type Fake struct {
	// Reply and RunErr answer Run (the classifier and one-shot answers).
	Reply  string
	RunErr error

	// Chunks are streamed in order, then StreamErr if set.
	Chunks    []string
	StreamErr error
	OpenErr   error
	// Hold, when set, keeps the stream open after the chunks until it is
	// closed or ctx is done.
	Hold chan struct{}

	mu       sync.Mutex
	prompts  []string
	streamed []llm.ChatRequest
}

func (f *Fake) Run(ctx context.Context, req llm.ChatRequest) (string, error) {
	f.mu.Lock()
	if n := len(req.Messages); n > 0 {
		f.prompts = append(f.prompts, req.Messages[n-1].Content)
	}
	f.mu.Unlock()
	if f.RunErr != nil {
		return "", f.RunErr
	}
	return f.Reply, nil
}

func (f *Fake) RunStream(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	f.mu.Lock()
	f.streamed = append(f.streamed, req)
	f.mu.Unlock()
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	ch := make(chan llm.StreamChunk)
	go func() {
		defer close(ch)
		for _, c := range f.Chunks {
			select {
			case ch <- llm.StreamChunk{Content: c}:
			case <-ctx.Done():
				return
			}
		}
		if f.Hold != nil {
			select {
			case <-f.Hold:
			case <-ctx.Done():
				return
			}
		}
		if f.StreamErr != nil {
			select {
			case ch <- llm.StreamChunk{Err: f.StreamErr}:
			case <-ctx.Done():
			}
		}
	}()
	return ch, nil
}

// StreamRequests returns the requests passed to RunStream.
func (f *Fake) StreamRequests() []llm.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.ChatRequest(nil), f.streamed...)
}

// LastStreamPrompt is the final message of the last streamed request.
func (f *Fake) LastStreamPrompt() string {
	reqs := f.StreamRequests()
	if len(reqs) == 0 {
		return ""
	}
	msgs := reqs[len(reqs)-1].Messages
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Content
}

// RunPrompts returns the prompts passed to Run.
func (f *Fake) RunPrompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}
