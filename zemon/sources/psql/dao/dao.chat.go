package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"zemon/zemon/sources"
	"zemon/zemon/sources/psql/models"
	"zemon/zemon/types"
)

type ChatDAO struct {
	DB *gorm.DB
}

func NewChatDAO(db *gorm.DB) *ChatDAO {
	return &ChatDAO{DB: db}
}

func (dao *ChatDAO) CreateChat(ctx context.Context, chat *types.Chat) error {
	msgs, err := models.EncodeMessages(chat.Messages)
	if err != nil {
		return err
	}
	row := models.Chat{
		ID:       chat.ID,
		UserID:   chat.UserID,
		Title:    chat.Title,
		Messages: msgs,
	}
	if err := dao.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create chat: %w", err)
	}
	created, err := row.ToType()
	if err != nil {
		return err
	}
	*chat = *created
	return nil
}

func (dao *ChatDAO) GetChat(ctx context.Context, id string) (*types.Chat, error) {
	var row models.Chat
	err := dao.DB.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, sources.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.ToType()
}

func (dao *ChatDAO) ListChats(ctx context.Context, userID string) ([]types.Chat, error) {
	var rows []models.Chat
	err := dao.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	chats := make([]types.Chat, 0, len(rows))
	for _, row := range rows {
		c, err := row.ToType()
		if err != nil {
			return nil, err
		}
		chats = append(chats, *c)
	}
	return chats, nil
}

// ReplaceMessages is a single conditional UPDATE; when it matches nothing the
// row is re-read only to report why.
func (dao *ChatDAO) ReplaceMessages(ctx context.Context, id, userID string, messages []types.Message, expectedRevision *int) (*types.Chat, error) {
	msgs, err := models.EncodeMessages(messages)
	if err != nil {
		return nil, err
	}
	q := dao.DB.WithContext(ctx).Model(&models.Chat{}).Where("id = ? AND user_id = ?", id, userID)
	if expectedRevision != nil {
		q = q.Where("revision = ?", *expectedRevision)
	}
	res := q.Updates(map[string]interface{}{
		"messages":   msgs,
		"revision":   gorm.Expr("revision + 1"),
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return nil, fmt.Errorf("replace messages: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, dao.explainMiss(ctx, id, userID)
	}
	return dao.GetChat(ctx, id)
}

func (dao *ChatDAO) DeleteChat(ctx context.Context, id, userID string) error {
	res := dao.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Chat{})
	if res.Error != nil {
		return fmt.Errorf("delete chat: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return dao.explainMiss(ctx, id, userID)
	}
	return nil
}

func (dao *ChatDAO) explainMiss(ctx context.Context, id, userID string) error {
	chat, err := dao.GetChat(ctx, id)
	if err != nil {
		return err
	}
	if chat.UserID != userID {
		return sources.ErrForbidden
	}
	return sources.ErrConflict
}
