// zemon/utils/types/chat.go
package types

import "zemon/zemon/types"

// ChatRequest is one chat turn. ChatID and Messages are optional: without a
// ChatID a new chat is created; Messages replaces the stored history (edits).
type ChatRequest struct {
	Message      string          `json:"message"`
	SystemPrompt string          `json:"systemPrompt"`
	ChatID       string          `json:"chatId,omitempty"`
	Messages     []types.Message `json:"messages,omitempty"`
	Revision     *int            `json:"revision,omitempty"`
}

type CreateChatRequest struct {
	Title    string          `json:"title"`
	Messages []types.Message `json:"messages"`
}

type UpdateChatRequest struct {
	Messages []types.Message `json:"messages"`
	Revision *int            `json:"revision,omitempty"`
}

// WSChatRequest is a frame sent by websocket clients.
type WSChatRequest struct {
	Token       string      `json:"token,omitempty"`
	ChatRequest ChatRequest `json:"chat_request"`
}

// WSEvent is a frame sent to websocket clients.
type WSEvent struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}
