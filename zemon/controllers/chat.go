// zemon/controllers/chat.go
package controllers

import (
	"context"

	"zemon/zemon/services/assistant"
	utypes "zemon/zemon/utils/types"
)

type ChatController struct {
	assistant *assistant.Assistant
}

func NewChatController(a *assistant.Assistant) *ChatController {
	return &ChatController{assistant: a}
}

// StartTurn validates the request and resolves the target chat. The returned
// turn has not sent anything yet.
func (c *ChatController) StartTurn(ctx context.Context, userID string, req utypes.ChatRequest) (*assistant.Turn, error) {
	return c.assistant.Prepare(ctx, userID, req)
}

func (c *ChatController) Search(ctx context.Context, req utypes.SearchRequest) (*utypes.SearchResponse, error) {
	return c.assistant.Answer(ctx, req.Query, req.Type)
}
