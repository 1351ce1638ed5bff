// zemon/services/transcript/transcript.go
package transcript

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"zemon/zemon/sources"
	"zemon/zemon/types"
	"zemon/zemon/utils/logging"
)

// Persister owns every write to stored chats. Ownership is enforced by the
// store's conditional update, never by a read-then-write here.
type Persister struct {
	Chats sources.ChatStore
}

func NewPersister(chats sources.ChatStore) *Persister {
	return &Persister{Chats: chats}
}

// Transcript is the outcome of one chat turn.
type Transcript struct {
	ChatID string
	// New marks ChatID as assigned by the caller to a chat not stored yet.
	New              bool
	FirstUserMessage string
	Messages         []types.Message
	// ExpectedRevision turns the write to an existing chat into a compare-and-set.
	ExpectedRevision *int
}

// Save stores the finished transcript of a turn. A new chat is titled from
// the first user message; an existing one has its messages replaced.
func (p *Persister) Save(ctx context.Context, userID string, tr Transcript) (*types.Chat, error) {
	if tr.New || tr.ChatID == "" {
		return p.Create(ctx, userID, tr.ChatID, types.DeriveTitle(tr.FirstUserMessage), tr.Messages)
	}
	return p.Replace(ctx, userID, tr.ChatID, tr.Messages, tr.ExpectedRevision)
}

// Create stores a new chat. id may be empty, in which case the store assigns one.
func (p *Persister) Create(ctx context.Context, userID, id, title string, messages []types.Message) (*types.Chat, error) {
	defer logging.LogDuration(ctx, "Persister.Create")()

	msgs, err := finalize(messages)
	if err != nil {
		return nil, err
	}
	chat := &types.Chat{
		ID:       id,
		UserID:   userID,
		Title:    strings.TrimSpace(title),
		Messages: msgs,
	}
	if chat.Title == "" {
		chat.Title = types.DeriveTitle(firstUserContent(msgs))
	}
	if err := p.Chats.CreateChat(ctx, chat); err != nil {
		return nil, err
	}
	logging.AppLogger.Info("chat created", zap.String("chat_id", chat.ID), zap.String("user_id", userID))
	return chat, nil
}

// Replace overwrites the messages of a chat owned by userID. A set
// expectedRevision turns the write into a compare-and-set.
func (p *Persister) Replace(ctx context.Context, userID, chatID string, messages []types.Message, expectedRevision *int) (*types.Chat, error) {
	defer logging.LogDuration(ctx, "Persister.Replace")()

	msgs, err := finalize(messages)
	if err != nil {
		return nil, err
	}
	chat, err := p.Chats.ReplaceMessages(ctx, chatID, userID, msgs, expectedRevision)
	if err != nil {
		return nil, fmt.Errorf("replace chat %s: %w", chatID, err)
	}
	return chat, nil
}

func (p *Persister) Delete(ctx context.Context, userID, chatID string) error {
	if err := p.Chats.DeleteChat(ctx, chatID, userID); err != nil {
		return fmt.Errorf("delete chat %s: %w", chatID, err)
	}
	logging.AppLogger.Info("chat deleted", zap.String("chat_id", chatID), zap.String("user_id", userID))
	return nil
}

func (p *Persister) List(ctx context.Context, userID string) ([]types.Chat, error) {
	return p.Chats.ListChats(ctx, userID)
}

// Get returns the chat if userID owns it.
func (p *Persister) Get(ctx context.Context, userID, chatID string) (*types.Chat, error) {
	chat, err := p.Chats.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.UserID != userID {
		return nil, sources.ErrForbidden
	}
	return chat, nil
}

// finalize validates roles and marks every message complete; stored messages
// are never in progress.
func finalize(messages []types.Message) ([]types.Message, error) {
	out := make([]types.Message, len(messages))
	for i, m := range messages {
		if !m.Role.Valid() {
			return nil, fmt.Errorf("message %d: role %q: %w", i, m.Role, sources.ErrInvalid)
		}
		m.Complete = true
		if m.Role == types.RoleAssistant && m.Kind == "" {
			m.Kind = types.KindPlain
		}
		out[i] = m
	}
	return out, nil
}

func firstUserContent(messages []types.Message) string {
	for _, m := range messages {
		if m.Role == types.RoleUser {
			return m.Content
		}
	}
	return "New chat"
}
