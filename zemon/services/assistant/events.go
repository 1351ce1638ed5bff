package assistant

import (
	"zemon/zemon/types"
)

type EventType string

const (
	EventChatStarted      EventType = "chat_started"
	EventSearchStarted    EventType = "search_started"
	EventSearchResults    EventType = "search_results"
	EventSearchFailed     EventType = "search_failed"
	EventResponseChunk    EventType = "response_chunk"
	EventResponseComplete EventType = "response_complete"
	EventError            EventType = "error"
)

// SaveFailedMessage is the error event content when the transcript could not
// be stored. No response_complete follows it.
const SaveFailedMessage = "failed to save chat"

// Event is one step of a turn as seen by the client transport.
type Event struct {
	Type   EventType
	ChatID string
	// Content is the chunk text for response_chunk and the apology for error.
	Content string
	Search  *types.SearchContext
	// Chat is set on response_complete.
	Chat *types.Chat
	Err  error
}

// Sink receives events in order. An error from Sink means the client is gone
// and ends the turn without persisting.
type Sink func(Event) error

// Payload is the JSON object sent to websocket clients for e.
func (e Event) Payload() map[string]any {
	p := map[string]any{"chat_id": e.ChatID}
	switch e.Type {
	case EventResponseChunk:
		p["content"] = e.Content
	case EventSearchResults:
		if e.Search != nil {
			p["summary"] = e.Search.Summary
			p["sources"] = e.Search.Sources
		}
	case EventSearchFailed:
		if e.Search != nil {
			p["reason"] = e.Search.Reason
		}
	case EventError:
		p["message"] = e.Content
	case EventResponseComplete:
		if e.Chat != nil {
			p["revision"] = e.Chat.Revision
			p["title"] = e.Chat.Title
			if n := len(e.Chat.Messages); n > 0 {
				p["message"] = e.Chat.Messages[n-1]
			}
		}
	}
	return p
}
