package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"zemon/zemon/types"
)

// Chat keeps the transcript as one JSON array, replaced wholesale on update.
type Chat struct {
	ID        string         `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID    string         `json:"user_id" gorm:"type:varchar(36);not null;index"`
	Title     string         `json:"title" gorm:"type:varchar(255);not null"`
	Messages  datatypes.JSON `json:"messages" gorm:"not null"`
	Revision  int            `json:"revision" gorm:"not null;default:0"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

func (c *Chat) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func EncodeMessages(msgs []types.Message) (datatypes.JSON, error) {
	if msgs == nil {
		msgs = []types.Message{}
	}
	b, err := json.Marshal(msgs)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func (c Chat) ToType() (*types.Chat, error) {
	msgs := []types.Message{}
	if len(c.Messages) > 0 {
		if err := json.Unmarshal(c.Messages, &msgs); err != nil {
			return nil, err
		}
	}
	return &types.Chat{
		ID:        c.ID,
		UserID:    c.UserID,
		Title:     c.Title,
		Messages:  msgs,
		Revision:  c.Revision,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}, nil
}
