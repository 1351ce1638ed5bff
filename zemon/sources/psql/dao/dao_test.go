package dao

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"zemon/zemon/sources"
	"zemon/zemon/sources/psql/models"
	"zemon/zemon/sources/psql/psqltest"
	"zemon/zemon/types"
)

func msgs(contents ...string) []types.Message {
	out := make([]types.Message, 0, len(contents))
	for i, c := range contents {
		role := types.RoleUser
		if i%2 == 1 {
			role = types.RoleAssistant
		}
		out = append(out, types.Message{Role: role, Content: c, Complete: true})
	}
	return out
}

func TestUserDAO_CreateAndLookup(t *testing.T) {
	db := psqltest.NewDatabase(t)
	users := NewUserDAO(db.DB)
	ctx := context.Background()

	u := &types.User{Name: "Ada", Email: " Ada@Example.com ", PasswordHash: "hash"}
	require.NoError(t, users.CreateUser(ctx, u))
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ada@example.com", u.Email)

	byEmail, err := users.GetUserByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)

	byID, err := users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", byID.Name)

	_, err = users.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, sources.ErrNotFound)

	dup := &types.User{Name: "Other", Email: "ada@example.com", PasswordHash: "x"}
	assert.ErrorIs(t, users.CreateUser(ctx, dup), sources.ErrDuplicateEmail)
}

func TestUserDAO_UniqueEmailViolation(t *testing.T) {
	db := psqltest.NewDatabase(t)
	users := NewUserDAO(db.DB)
	ctx := context.Background()

	require.NoError(t, users.CreateUser(ctx, &types.User{Name: "A", Email: "dup@example.com", PasswordHash: "h"}))

	// an insert that skipped the count check, as a racing signup would
	err := db.DB.Create(&models.User{ID: "racer", Name: "B", Email: "dup@example.com", PasswordHash: "h"}).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	assert.ErrorIs(t, createUserErr(err), sources.ErrDuplicateEmail)

	err = users.CreateUser(ctx, &types.User{Name: "C", Email: "DUP@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, sources.ErrDuplicateEmail)
}

func TestChatDAO_ListNewestFirst(t *testing.T) {
	db := psqltest.NewDatabase(t)
	chats := NewChatDAO(db.DB)
	ctx := context.Background()

	first := &types.Chat{UserID: "u1", Title: "first", Messages: msgs("a", "b")}
	require.NoError(t, chats.CreateChat(ctx, first))
	time.Sleep(5 * time.Millisecond)
	second := &types.Chat{UserID: "u1", Title: "second", Messages: msgs("c", "d")}
	require.NoError(t, chats.CreateChat(ctx, second))
	require.NoError(t, chats.CreateChat(ctx, &types.Chat{UserID: "u2", Title: "other"}))

	list, err := chats.ListChats(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Title)
	assert.Equal(t, "first", list[1].Title)
	assert.Equal(t, msgs("a", "b"), list[1].Messages)
}

func TestChatDAO_ReplaceMessages(t *testing.T) {
	db := psqltest.NewDatabase(t)
	chats := NewChatDAO(db.DB)
	ctx := context.Background()

	chat := &types.Chat{UserID: "owner", Title: "t", Messages: msgs("q")}
	require.NoError(t, chats.CreateChat(ctx, chat))
	assert.Equal(t, 0, chat.Revision)

	updated, err := chats.ReplaceMessages(ctx, chat.ID, "owner", msgs("q", "a"), nil)
	require.NoError(t, err)
	assert.Equal(t, msgs("q", "a"), updated.Messages)
	assert.Equal(t, 1, updated.Revision)

	_, err = chats.ReplaceMessages(ctx, chat.ID, "intruder", msgs("evil"), nil)
	assert.ErrorIs(t, err, sources.ErrForbidden)

	stale := 0
	_, err = chats.ReplaceMessages(ctx, chat.ID, "owner", msgs("late"), &stale)
	assert.ErrorIs(t, err, sources.ErrConflict)

	current := 1
	updated, err = chats.ReplaceMessages(ctx, chat.ID, "owner", msgs("q", "a", "q2", "a2"), &current)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Revision)

	_, err = chats.ReplaceMessages(ctx, "missing", "owner", msgs("x"), nil)
	assert.ErrorIs(t, err, sources.ErrNotFound)

	stored, err := chats.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, msgs("q", "a", "q2", "a2"), stored.Messages)
}

func TestChatDAO_Delete(t *testing.T) {
	db := psqltest.NewDatabase(t)
	chats := NewChatDAO(db.DB)
	ctx := context.Background()

	chat := &types.Chat{UserID: "owner", Title: "t", Messages: msgs("q")}
	require.NoError(t, chats.CreateChat(ctx, chat))

	assert.ErrorIs(t, chats.DeleteChat(ctx, chat.ID, "intruder"), sources.ErrForbidden)
	require.NoError(t, chats.DeleteChat(ctx, chat.ID, "owner"))
	assert.ErrorIs(t, chats.DeleteChat(ctx, chat.ID, "owner"), sources.ErrNotFound)
}
