// Package conversation holds the state of one conversation as a value that
// only changes through Reduce. Both the server-side responder and the
// terminal client drive their transcript through it.
package conversation

import (
	"zemon/zemon/types"
)

type State struct {
	ChatID   string
	Title    string
	Messages []types.Message
	Revision int
	// Streaming is true between AppendUser and FinalizeMessage/Error.
	Streaming bool
	Err       string
}

type Action interface {
	apply(State) State
}

// NewChat clears the state for a fresh conversation, optionally with a
// pre-assigned id.
type NewChat struct {
	ID string
}

// SelectChat loads a stored chat.
type SelectChat struct {
	Chat types.Chat
}

// AppendUser adds the user turn and an empty, incomplete assistant message.
type AppendUser struct {
	Content string
}

// AppendChunk appends streamed text to the in-progress assistant message.
type AppendChunk struct {
	Content string
}

// FinalizeMessage marks the in-progress assistant message complete.
type FinalizeMessage struct {
	Kind   types.MessageKind
	Search *types.SearchContext
}

// Error replaces the in-progress assistant content with Content and
// completes it.
type Error struct {
	Message string
	Content string
	Kind    types.MessageKind
	Search  *types.SearchContext
}

// Reduce returns the state after a. s is never modified.
func Reduce(s State, a Action) State {
	s.Messages = append([]types.Message(nil), s.Messages...)
	return a.apply(s)
}

func (a NewChat) apply(State) State {
	return State{ChatID: a.ID}
}

func (a SelectChat) apply(State) State {
	return State{
		ChatID:   a.Chat.ID,
		Title:    a.Chat.Title,
		Messages: append([]types.Message(nil), a.Chat.Messages...),
		Revision: a.Chat.Revision,
	}
}

func (a AppendUser) apply(s State) State {
	if s.Title == "" {
		s.Title = types.DeriveTitle(a.Content)
	}
	s.Messages = append(s.Messages,
		types.Message{Role: types.RoleUser, Content: a.Content, Complete: true},
		types.Message{Role: types.RoleAssistant, Kind: types.KindPlain},
	)
	s.Streaming = true
	s.Err = ""
	return s
}

func (a AppendChunk) apply(s State) State {
	if i := s.pending(); i >= 0 {
		s.Messages[i].Content += a.Content
	}
	return s
}

func (a FinalizeMessage) apply(s State) State {
	if i := s.pending(); i >= 0 {
		s.Messages[i].Complete = true
		if a.Kind != "" {
			s.Messages[i].Kind = a.Kind
		}
		s.Messages[i].Search = a.Search
	}
	s.Streaming = false
	return s
}

func (a Error) apply(s State) State {
	if i := s.pending(); i >= 0 {
		s.Messages[i].Content = a.Content
		s.Messages[i].Complete = true
		if a.Kind != "" {
			s.Messages[i].Kind = a.Kind
		}
		s.Messages[i].Search = a.Search
	}
	s.Streaming = false
	s.Err = a.Message
	return s
}

// pending is the index of the incomplete assistant message, or -1.
func (s State) pending() int {
	n := len(s.Messages)
	if n == 0 {
		return -1
	}
	last := s.Messages[n-1]
	if last.Role != types.RoleAssistant || last.Complete {
		return -1
	}
	return n - 1
}

// Last returns the most recent message, if any.
func (s State) Last() (types.Message, bool) {
	if len(s.Messages) == 0 {
		return types.Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}
