package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"zemon/zemon/sources"
	"zemon/zemon/types"
)

type ChatDAO struct {
	coll *mongo.Collection
}

func NewChatDAO(db *mongo.Database) *ChatDAO {
	return &ChatDAO{coll: db.Collection(chatsCollection)}
}

func (dao *ChatDAO) CreateChat(ctx context.Context, chat *types.Chat) error {
	now := time.Now().UTC()
	if chat.ID == "" {
		chat.ID = uuid.NewString()
	}
	chat.CreatedAt, chat.UpdatedAt, chat.Revision = now, now, 0
	doc := chatDocumentFrom(chat)
	if _, err := dao.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create chat: %w", err)
	}
	chat.Messages = doc.Messages
	return nil
}

func (dao *ChatDAO) GetChat(ctx context.Context, id string) (*types.Chat, error) {
	var doc chatDocument
	err := dao.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sources.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toType(), nil
}

func (dao *ChatDAO) ListChats(ctx context.Context, userID string) ([]types.Chat, error) {
	cur, err := dao.coll.Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []chatDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	chats := make([]types.Chat, 0, len(docs))
	for _, d := range docs {
		chats = append(chats, *d.toType())
	}
	return chats, nil
}

// ReplaceMessages relies on findOneAndUpdate matching id and owner (and
// revision) in one atomic step.
func (dao *ChatDAO) ReplaceMessages(ctx context.Context, id, userID string, messages []types.Message, expectedRevision *int) (*types.Chat, error) {
	if messages == nil {
		messages = []types.Message{}
	}
	filter := bson.M{"_id": id, "userId": userID}
	if expectedRevision != nil {
		filter["revision"] = *expectedRevision
	}
	update := bson.M{
		"$set": bson.M{"messages": messages, "updatedAt": time.Now().UTC()},
		"$inc": bson.M{"revision": 1},
	}
	var doc chatDocument
	err := dao.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, dao.explainMiss(ctx, id, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("replace messages: %w", err)
	}
	return doc.toType(), nil
}

func (dao *ChatDAO) DeleteChat(ctx context.Context, id, userID string) error {
	res, err := dao.coll.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	if res.DeletedCount == 0 {
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
