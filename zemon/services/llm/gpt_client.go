package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	httputils "zemon/zemon/utils/http"
	"zemon/zemon/utils/logging"
)

// GPTClient talks to any OpenAI-compatible chat completions endpoint
// (OpenAI, Gemini's OpenAI surface, Groq).
type GPTClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewGPTClient(baseURL, apiKey string) *GPTClient {
	return &GPTClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

type gptResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type gptStreamResponse struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *GPTClient) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.apiKey}
}

// Run executes a single completion request (non-streaming)
func (c *GPTClient) Run(ctx context.Context, req ChatRequest) (string, error) {
	defer logging.LogDuration(ctx, "gpt_service_run")()

	req.Stream = false
	var parsed gptResponse
	if err := httputils.PostJSON(ctx, c.http, c.baseURL+"/chat/completions", c.headers(), req, &parsed); err != nil {
		return "", fmt.Errorf("GPT request failed: %w", err)
	}
	if len(parsed.Choices) > 0 {
		return parsed.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("no content in GPT response")
}

// RunStream handles SSE streaming responses
func (c *GPTClient) RunStream(ctx context.Context, req ChatRequest) (<-chan StreamChunk, error) {
	defer logging.LogDuration(ctx, "gpt_service_run_stream")()

	req.Stream = true
	body, err := httputils.PostStream(ctx, c.http, c.baseURL+"/chat/completions", c.headers(), req)
	if err != nil {
		return nil, fmt.Errorf("GPT stream request failed: %w", err)
	}

	ch := make(chan StreamChunk)
	go func() {
		defer close(ch)
		defer body.Close()
		readSSE(ctx, body, ch)
	}()
	return ch, nil
}

// readSSE parses `data:` lines until [DONE]; any other ending is an error chunk.
func readSSE(ctx context.Context, body io.Reader, ch chan<- StreamChunk) {
	reader := bufio.NewReader(body)
	finished := false
	for {
		line, err := reader.ReadString('\n')
		if line = strings.TrimSpace(line); strings.HasPrefix(line, "data:") {
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return
			}
			var chunk gptStreamResponse
			if jerr := json.Unmarshal([]byte(data), &chunk); jerr != nil {
				logging.ErrorLogger.Error("GPT stream JSON parse error",
					zap.Error(jerr), zap.String("raw_line", data))
			} else if chunk.Error != nil {
				send(ctx, ch, StreamChunk{Err: fmt.Errorf("GPT stream error: %s", chunk.Error.Message)})
				return
			} else {
				for _, choice := range chunk.Choices {
					if choice.Delta.Content != "" {
						if !send(ctx, ch, StreamChunk{Content: choice.Delta.Content}) {
							logging.AppLogger.Info("GPT stream context cancelled")
							return
						}
					}
					if choice.FinishReason != nil && *choice.FinishReason != "" {
						finished = true
					}
				}
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				if finished {
					return
				}
				err = ErrIncompleteStream
			}
			logging.ErrorLogger.Error("GPT stream read error", zap.Error(err))
			send(ctx, ch, StreamChunk{Err: err})
			return
		}
	}
}
