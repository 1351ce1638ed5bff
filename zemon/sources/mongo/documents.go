package mongo

import (
	"time"

	"zemon/zemon/types"
)

type userDocument struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func (d userDocument) toType() *types.User {
	return &types.User{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type chatDocument struct {
	ID        string          `bson:"_id"`
	UserID    string          `bson:"userId"`
	Title     string          `bson:"title"`
	Messages  []types.Message `bson:"messages"`
	Revision  int             `bson:"revision"`
	CreatedAt time.Time       `bson:"createdAt"`
	UpdatedAt time.Time       `bson:"updatedAt"`
}

func chatDocumentFrom(c *types.Chat) chatDocument {
	msgs := c.Messages
	if msgs == nil {
		msgs = []types.Message{}
	}
	return chatDocument{
		ID:        c.ID,
		UserID:    c.UserID,
		Title:     c.Title,
		Messages:  msgs,
		Revision:  c.Revision,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (d chatDocument) toType() *types.Chat {
	msgs := d.Messages
	if msgs == nil {
		msgs = []types.Message{}
	}
	return &types.Chat{
		ID:        d.ID,
		UserID:    d.UserID,
		Title:     d.Title,
		Messages:  msgs,
		Revision:  d.Revision,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
