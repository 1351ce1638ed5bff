// zemon/controllers/auth.go
package controllers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"zemon/zemon/config"
	"zemon/zemon/middlewares"
	"zemon/zemon/sources"
	"zemon/zemon/types"
	"zemon/zemon/utils/logging"
	utypes "zemon/zemon/utils/types"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// bcrypt refuses longer input.
const maxPasswordBytes = 72

type AuthController struct {
	users sources.UserStore
	cfg   config.Config
}

func NewAuthController(users sources.UserStore, cfg config.Config) *AuthController {
	return &AuthController{
		users: users,
		cfg:   cfg,
	}
}

func (c *AuthController) Signup(ctx context.Context, req utypes.SignupRequest) (*types.Profile, error) {
	name, email := strings.TrimSpace(req.Name), strings.TrimSpace(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return nil, fmt.Errorf("name, email and password are required: %w", sources.ErrInvalid)
	}
	if len(req.Password) > maxPasswordBytes {
		return nil, fmt.Errorf("password must be at most %d bytes: %w", maxPasswordBytes, sources.ErrInvalid)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, fmt.Errorf("password too long: %w", sources.ErrInvalid)
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &types.User{Name: name, Email: email, PasswordHash: string(hash)}
	if err := c.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	logging.AppLogger.Info("user signed up", zap.String("user_id", user.ID))
	p := user.Profile()
	return &p, nil
}

func (c *AuthController) Login(ctx context.Context, req utypes.LoginRequest) (string, error) {
	user, err := c.users.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, sources.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return middlewares.IssueToken(c.cfg.JWTSecret, user.ID)
}
