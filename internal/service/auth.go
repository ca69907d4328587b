// Package service maps each backend endpoint to one typed call. Nothing here
// interprets envelope codes; callers decide what success means.
package service

import (
	"context"

	"github.com/strrl/copycat/internal/api"
	"github.com/strrl/copycat/pkg/models"
)

// RegisterRequest is the body of POST /register
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname,omitempty"`
}

// LoginRequest is the body of POST /login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the new session
type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Auth covers registration, login and the current profile
type Auth struct {
	c *api.Client
}

func NewAuth(c *api.Client) *Auth {
	return &Auth{c: c}
}

func (s *Auth) Register(ctx context.Context, req RegisterRequest) (*api.Envelope[api.Empty], error) {
	return api.Post[api.Empty](ctx, s.c, "/register", req)
}

func (s *Auth) Login(ctx context.Context, req LoginRequest) (*api.Envelope[LoginResponse], error) {
	return api.Post[LoginResponse](ctx, s.c, "/login", req)
}

func (s *Auth) Profile(ctx context.Context) (*api.Envelope[models.User], error) {
	return api.Get[models.User](ctx, s.c, "/user/profile")
}
