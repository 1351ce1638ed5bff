package dao

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"zemon/zemon/sources"
	"zemon/zemon/sources/psql/models"
	"zemon/zemon/types"
)

type UserDAO struct {
	DB *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{DB: db}
}

func (dao *UserDAO) GetUserByID(ctx context.Context, id string) (*types.User, error) {
	var user models.User
	err := dao.DB.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, sources.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user.ToType(), nil
}

func (dao *UserDAO) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	var user models.User
	err := dao.DB.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, sources.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user.ToType(), nil
}

func (dao *UserDAO) CreateUser(ctx context.Context, u *types.User) error {
	user := models.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        normalizeEmail(u.Email),
		PasswordHash: u.PasswordHash,
	}
	err := dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return sources.ErrDuplicateEmail
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return createUserErr(err)
	}
	*u = *user.ToType()
	return nil
}

// createUserErr maps a failed insert. Concurrent signups that both pass the
// count check are caught by the unique email index.
func createUserErr(err error) error {
	if errors.Is(err, sources.ErrDuplicateEmail) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return sources.ErrDuplicateEmail
	}
	return fmt.Errorf("create user: %w", err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
