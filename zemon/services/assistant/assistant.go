// zemon/services/assistant/assistant.go
package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"zemon/zemon/config"
	"zemon/zemon/services/conversation"
	"zemon/zemon/services/llm"
	"zemon/zemon/services/search"
	"zemon/zemon/services/transcript"
	"zemon/zemon/sources"
	"zemon/zemon/types"
	httputils "zemon/zemon/utils/http"
	"zemon/zemon/utils/logging"
	utypes "zemon/zemon/utils/types"
)

// Assistant runs chat turns: classify, augment, compose, stream, persist.
type Assistant struct {
	LLM         llm.Client
	Model       string
	Temperature *float64
	TopP        *float64

	Classifier  *Classifier
	Augmenter   *Augmenter
	Composer    Composer
	Transcripts *transcript.Persister
	Prompts     config.Prompts

	Now func() time.Time
}

func New(cfg config.Config, prompts config.Prompts, client llm.Client, provider search.Provider, transcripts *transcript.Persister) *Assistant {
	temp, topP := cfg.LLMTemperature, cfg.LLMTopP
	return &Assistant{
		LLM:         client,
		Model:       cfg.LLMModel,
		Temperature: &temp,
		TopP:        &topP,
		Classifier:  &Classifier{LLM: client, Model: cfg.LLMModel, Prompt: prompts.ClassifierPrompt},
		Augmenter:   &Augmenter{Provider: provider, Limit: cfg.SearchResultLimit},
		Composer:    Composer{Instructions: prompts.SearchInstructions},
		Transcripts: transcripts,
		Prompts:     prompts,
		Now:         time.Now,
	}
}

// Turn is a validated chat turn ready to stream.
type Turn struct {
	a        *Assistant
	userID   string
	message  string
	system   string
	isNew    bool
	revision *int // set: the final write is a compare-and-set
	state    conversation.State
}

// Prepare validates req and loads the chat it continues. Every error it
// returns is a client error (ErrInvalid, ErrNotFound, ErrForbidden); nothing
// has been sent yet.
func (a *Assistant) Prepare(ctx context.Context, userID string, req utypes.ChatRequest) (*Turn, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, fmt.Errorf("message is required: %w", sources.ErrInvalid)
	}
	t := &Turn{
		a:       a,
		userID:  userID,
		message: message,
		system:  strings.TrimSpace(req.SystemPrompt),
	}
	if t.system == "" {
		t.system = a.Prompts.SystemPrompt
	}

	if req.ChatID != "" {
		chat, err := a.Transcripts.Get(ctx, userID, req.ChatID)
		if err != nil {
			return nil, err
		}
		t.state = conversation.Reduce(conversation.State{}, conversation.SelectChat{Chat: *chat})
	} else {
		t.isNew = true
		t.state = conversation.Reduce(conversation.State{}, conversation.NewChat{ID: uuid.NewString()})
	}
	// a client-supplied history (e.g. after an edit) replaces the stored one
	if req.Messages != nil {
		t.state.Messages = append([]types.Message(nil), req.Messages...)
	}
	t.revision = req.Revision
	return t, nil
}

// ChatID is the chat the turn will be persisted to.
func (t *Turn) ChatID() string {
	return t.state.ChatID
}

// Run streams the turn to sink and persists the transcript. It returns without
// persisting when ctx is cancelled or sink fails.
func (t *Turn) Run(ctx context.Context, sink Sink) (*types.Chat, error) {
	defer logging.LogDuration(ctx, "Turn.Run")()
	a := t.a
	chatID := t.ChatID()

	if err := sink(Event{Type: EventChatStarted, ChatID: chatID}); err != nil {
		return nil, err
	}

	history := t.state.Messages
	t.state = conversation.Reduce(t.state, conversation.AppendUser{Content: t.message})

	kind := types.KindPlain
	var searchCtx *types.SearchContext
	var aug Augmentation

	if a.Classifier.NeedsSearch(ctx, t.message) {
		if err := sink(Event{Type: EventSearchStarted, ChatID: chatID}); err != nil {
			return nil, err
		}
		var err error
		aug, err = a.Augmenter.Augment(ctx, t.message)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logging.ErrorLogger.Error("web search failed", zap.String("chat_id", chatID), zap.Error(err))
			kind = types.KindSearchFailed
			searchCtx = &types.SearchContext{Reason: a.Prompts.SearchFailedNote}
			if err := sink(Event{Type: EventSearchFailed, ChatID: chatID, Search: searchCtx}); err != nil {
				return nil, err
			}
		case !aug.Empty():
			kind = types.KindSearchAugmented
			searchCtx = aug.Context()
			if err := sink(Event{Type: EventSearchResults, ChatID: chatID, Search: searchCtx}); err != nil {
				return nil, err
			}
			block := aug.Text() + "\n"
			t.state = conversation.Reduce(t.state, conversation.AppendChunk{Content: block})
			if err := sink(Event{Type: EventResponseChunk, ChatID: chatID, Content: block}); err != nil {
				return nil, err
			}
		}
	}

	req := llm.ChatRequest{
		Model:       a.Model,
		Messages:    append(toLLMMessages(history), llm.Message{Role: "user", Content: a.Composer.Compose(t.system, aug, t.message)}),
		Temperature: a.Temperature,
		TopP:        a.TopP,
	}
	stream, err := a.LLM.RunStream(ctx, req)
	if err != nil {
		return t.fail(ctx, sink, err, kind, searchCtx, !aug.Empty())
	}
	for chunk := range stream {
		if chunk.Err != nil {
			return t.fail(ctx, sink, chunk.Err, kind, searchCtx, !aug.Empty())
		}
		t.state = conversation.Reduce(t.state, conversation.AppendChunk{Content: chunk.Content})
		if err := sink(Event{Type: EventResponseChunk, ChatID: chatID, Content: chunk.Content}); err != nil {
			return nil, err
		}
	}
	if ctx.Err() != nil {
		logging.AppLogger.Info("client went away, turn dropped", zap.String("chat_id", chatID))
		return nil, ctx.Err()
	}

	t.state = conversation.Reduce(t.state, conversation.FinalizeMessage{Kind: kind, Search: searchCtx})
	return t.persist(ctx, sink)
}

// fail replaces the assistant message with an apology, tells the client, and
// still persists the turn.
func (t *Turn) fail(ctx context.Context, sink Sink, cause error, kind types.MessageKind, searchCtx *types.SearchContext, summarySent bool) (*types.Chat, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	logging.ErrorLogger.Error("model stream failed", zap.String("chat_id", t.ChatID()), zap.Error(cause))

	apology := t.a.apology(cause, t.partial(), summarySent)
	t.state = conversation.Reduce(t.state, conversation.Error{
		Message: cause.Error(),
		Content: apology,
		Kind:    kind,
		Search:  searchCtx,
	})
	if err := sink(Event{Type: EventError, ChatID: t.ChatID(), Content: apology, Err: cause}); err != nil {
		return nil, err
	}
	return t.persist(ctx, sink)
}

func (t *Turn) persist(ctx context.Context, sink Sink) (*types.Chat, error) {
	chat, err := t.a.Transcripts.Save(ctx, t.userID, transcript.Transcript{
		ChatID:           t.ChatID(),
		New:              t.isNew,
		FirstUserMessage: t.message,
		Messages:         t.state.Messages,
		ExpectedRevision: t.revision,
	})
	if err != nil {
		logging.ErrorLogger.Error("failed to save chat", zap.String("chat_id", t.ChatID()), zap.Error(err))
		_ = sink(Event{Type: EventError, ChatID: t.ChatID(), Content: SaveFailedMessage, Err: err})
		return nil, err
	}
	if err := sink(Event{Type: EventResponseComplete, ChatID: chat.ID, Chat: chat}); err != nil {
		return chat, err
	}
	return chat, nil
}

func (t *Turn) partial() string {
	if last, ok := t.state.Last(); ok && last.Role == types.RoleAssistant {
		return last.Content
	}
	return ""
}

// apology picks the text that replaces a failed answer. Content the client
// has already seen after a research block is kept.
func (a *Assistant) apology(cause error, partial string, summarySent bool) string {
	if summarySent {
		return partial + "\n\n" + a.Prompts.ApologySearch + "\n\nToday's date is " + a.Now().Format("Monday, January 2, 2006")
	}
	if IsThrottled(cause) {
		return a.Prompts.ApologyThrottled
	}
	return a.Prompts.ApologyGeneric
}

// IsThrottled reports whether err came from an upstream 429.
func IsThrottled(err error) bool {
	var se *httputils.StatusError
	return errors.As(err, &se) && se.Code == http.StatusTooManyRequests
}

func toLLMMessages(history []types.Message) []llm.Message {
	out := make([]llm.Message, 0, len(history))
	for _, m := range history {
		if m.Content == "" {
			continue
		}
		out = append(out, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}
