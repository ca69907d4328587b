package service

import (
	"context"

	"github.com/strrl/copycat/internal/api"
)

// UpdateProfileRequest is the body of PUT /user/profile
type UpdateProfileRequest struct {
	Nickname string `json:"nickname,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

// ChangePasswordRequest is the body of PUT /user/password
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// User covers account maintenance
type User struct {
	c *api.Client
}

func NewUser(c *api.Client) *User {
	return &User{c: c}
}

func (s *User) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*api.Envelope[api.Empty], error) {
	return api.Put[api.Empty](ctx, s.c, "/user/profile", req)
}

func (s *User) ChangePassword(ctx context.Context, req ChangePasswordRequest) (*api.Envelope[api.Empty], error) {
	return api.Put[api.Empty](ctx, s.c, "/user/password", req)
}
