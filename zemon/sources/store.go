// Package sources declares the persistence contracts the controllers depend on.
// psql and mongo provide the implementations.
package sources

import (
	"context"
	"errors"

	"zemon/zemon/types"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("revision conflict")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrInvalid        = errors.New("invalid input")
)

type ChatStore interface {
	// CreateChat stores chat; an empty ID is assigned, timestamps are set.
	CreateChat(ctx context.Context, chat *types.Chat) error
	GetChat(ctx context.Context, id string) (*types.Chat, error)
	// ListChats returns the chats owned by userID, newest first.
	ListChats(ctx context.Context, userID string) ([]types.Chat, error)
	// ReplaceMessages atomically replaces the message array of the chat that
	// matches id AND userID (AND revision when expectedRevision is set),
	// bumping revision and updatedAt.
	ReplaceMessages(ctx context.Context, id, userID string, messages []types.Message, expectedRevision *int) (*types.Chat, error)
	// DeleteChat removes the chat matching id AND userID.
	DeleteChat(ctx context.Context, id, userID string) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *types.User) error
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
}
