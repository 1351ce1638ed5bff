package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"zemon/zemon/sources"
	"zemon/zemon/types"
)

type UserDAO struct {
	coll *mongo.Collection
}

func NewUserDAO(db *mongo.Database) *UserDAO {
	return &UserDAO{coll: db.Collection(usersCollection)}
}

func (dao *UserDAO) CreateUser(ctx context.Context, u *types.User) error {
	now := time.Now().UTC()
	doc := userDocument{
		ID:           u.ID,
		Name:         u.Name,
		Email:        strings.ToLower(strings.TrimSpace(u.Email)),
		PasswordHash: u.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if _, err := dao.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return sources.ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}
	*u = *doc.toType()
	return nil
}

func (dao *UserDAO) GetUserByID(ctx context.Context, id string) (*types.User, error) {
	return dao.findOne(ctx, bson.M{"_id": id})
}

func (dao *UserDAO) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	return dao.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (dao *UserDAO) findOne(ctx context.Context, filter bson.M) (*types.User, error) {
	var doc userDocument
	err := dao.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sources.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toType(), nil
}
