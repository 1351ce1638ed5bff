package llm

import (
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

type OllamaClient struct {
	baseURL string
	http    *http.Client
}

func NewOllamaClient(baseURL string) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434/api"
	}
	return &OllamaClient{baseURL: strings.TrimRight(baseURL, "/"), http: &http.Client{}}
}

type ollamaRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
	Error   string  `json:"error,omitempty"`
}

func toOllama(req ChatRequest, stream bool) ollamaRequest {
	out := ollamaRequest{Model: req.Model, Messages: req.Messages, Stream: stream}
	opts := map[string]any{}
	if req.Temperature != nil {
		opts["temperature"] = *req.Temperature
	}
	if req.TopP != nil {
		opts["top_p"] = *req.TopP
	}
	if len(opts) > 0 {
		out.Options = opts
	}
	return out
}

func (c *OllamaClient) Run(ctx context.Context, req ChatRequest) (string, error) {
	defer logging.LogDuration(ctx, "llm_service_run")()
	var resp ollamaResponse
	if err := httputils.PostJSON(ctx, c.http, c.baseURL+"/chat", nil, toOllama(req, false), &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama: %s", resp.Error)
	}
	return resp.Message.Content, nil
}

func (c *OllamaClient) RunStream(ctx context.Context, req ChatRequest) (<-chan StreamChunk, error) {
	defer logging.LogDuration(ctx, "llm_service_run_stream")()

	body, err := httputils.PostStream(ctx, c.http, c.baseURL+"/chat", nil, toOllama(req, true))
	if err != nil {
		return nil, err
	}

	ch := make(chan StreamChunk)
	go func() {
		defer close(ch)
		defer body.Close()
		readNDJSON(ctx, body, ch)
	}()
	return ch, nil
}

func readNDJSON(ctx context.Context, body io.Reader, ch chan<- StreamChunk) {
	decoder := json.NewDecoder(body)
	for {
		var chunk ollamaResponse
		if err := decoder.Decode(&chunk); err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				err = ErrIncompleteStream
			}
			logging.ErrorLogger.Error("llm stream decode error", zap.Error(err))
			send(ctx, ch, StreamChunk{Err: err})
			return
		}
		if chunk.Error != "" {
			send(ctx, ch, StreamChunk{Err: fmt.Errorf("ollama: %s", chunk.Error)})
			return
		}
		if chunk.Message.Content != "" {
			if !send(ctx, ch, StreamChunk{Content: chunk.Message.Content}) {
				logging.AppLogger.Info("llm RunStream context cancelled")
				return
			}
		}
		if chunk.Done {
			return
		}
	}
}
