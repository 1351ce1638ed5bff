// zemon/controllers/user.go
package controllers

import (
	"context"

	"zemon/zemon/sources"
	"zemon/zemon/types"
)

type UserController struct {
	users sources.UserStore
}

func NewUserController(users sources.UserStore) *UserController {
	return &UserController{users: users}
}

func (c *UserController) GetProfile(ctx context.Context, id string) (*types.Profile, error) {
	user, err := c.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := user.Profile()
	return &p, nil
}
