package controllers

import (
	"context"
	"fmt"

	"zemon/zemon/services/transcript"
	"zemon/zemon/sources"
	"zemon/zemon/types"
	utypes "zemon/zemon/utils/types"
)

// ChatsController serves the stored chat collection.
type ChatsController struct {
	transcripts *transcript.Persister
}

func NewChatsController(p *transcript.Persister) *ChatsController {
	return &ChatsController{transcripts: p}
}

func (c *ChatsController) List(ctx context.Context, userID string) ([]types.Chat, error) {
	return c.transcripts.List(ctx, userID)
}

func (c *ChatsController) Create(ctx context.Context, userID string, req utypes.CreateChatRequest) (*types.Chat, error) {
	return c.transcripts.Create(ctx, userID, "", req.Title, req.Messages)
}

func (c *ChatsController) Get(ctx context.Context, userID, chatID string) (*types.Chat, error) {
	return c.transcripts.Get(ctx, userID, chatID)
}

// Update replaces the stored messages. An absent messages field is rejected;
// an empty array clears the chat.
func (c *ChatsController) Update(ctx context.Context, userID, chatID string, req utypes.UpdateChatRequest) (*types.Chat, error) {
	if req.Messages == nil {
		return nil, fmt.Errorf("messages is required: %w", sources.ErrInvalid)
	}
	return c.transcripts.Replace(ctx, userID, chatID, req.Messages, req.Revision)
}

func (c *ChatsController) Delete(ctx context.Context, userID, chatID string) error {
	return c.transcripts.Delete(ctx, userID, chatID)
}
