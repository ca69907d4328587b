package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/strrl/copycat/internal/api"
	"github.com/strrl/copycat/internal/service"
	"github.com/strrl/copycat/pkg/models"
)

const preferencesKey = "preferences"

// ErrNoSession is returned when an operation needs a token and none is stored
var ErrNoSession = errors.New("not logged in")

// KeyValue persists small client-side values
type KeyValue interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Preferences are client-only toggles
type Preferences struct {
	EmailNotifications bool `json:"email_notifications"`
	MarketingEmails    bool `json:"marketing_emails"`
	DarkMode           bool `json:"dark_mode"`
}

// PreferencesUpdate changes only the non-nil fields
type PreferencesUpdate struct {
	EmailNotifications *bool
	MarketingEmails    *bool
	DarkMode           *bool
}

// Membership describes the account plan
type Membership struct {
	Plan       string // Free, Pro, Enterprise
	ValidUntil string
}

// UserInfo is the display form of the current user
type UserInfo struct {
	Name  string
	Email string
	Bio   string
	Title string
}

// UserStore owns the session: the persisted token and the cached profile
type UserStore struct {
	auth   *service.Auth
	users  *service.User
	tokens api.TokenStore
	kv     KeyValue
	logger *zap.Logger

	mu          sync.RWMutex
	user        *models.User
	preferences Preferences
	membership  Membership
}

// NewUserStore creates a user store. kv may be nil, in which case preferences
// last only for the process.
func NewUserStore(auth *service.Auth, users *service.User, tokens api.TokenStore, kv KeyValue, logger *zap.Logger) *UserStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &UserStore{
		auth:   auth,
		users:  users,
		tokens: tokens,
		kv:     kv,
		logger: logger,
		preferences: Preferences{
			EmailNotifications: true,
		},
		membership: Membership{Plan: "Free"},
	}
	s.loadPreferences()
	return s
}

// IsLoggedIn reports whether a token is stored. The profile does not matter.
func (s *UserStore) IsLoggedIn() bool {
	return s.tokens.Token() != ""
}

// User returns a copy of the cached profile, or nil
func (s *UserStore) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// UserInfo returns display fields with defaults for a missing profile
func (s *UserStore) UserInfo() UserInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info := UserInfo{
		Name:  "CopyCat user",
		Bio:   "Breaking down and writing viral copy",
		Title: "Copywriter",
	}
	if s.user != nil {
		if s.user.Nickname != "" {
			info.Name = s.user.Nickname
		}
		info.Email = s.user.Email
	}
	return info
}

func (s *UserStore) Preferences() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preferences
}

func (s *UserStore) Membership() Membership {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.membership
}

// Login stores the returned token and caches the user
func (s *UserStore) Login(ctx context.Context, req service.LoginRequest) Result {
	env, err := s.auth.Login(ctx, req)
	if err != nil {
		s.logger.Error("login failed", zap.Error(err))
		return failed(err)
	}
	if !env.OK() || env.Data == nil {
		return rejected(env, "login failed")
	}

	if err := s.tokens.SetToken(env.Data.Token); err != nil {
		s.logger.Error("failed to persist token", zap.Error(err))
		return Result{Message: "could not save session", Err: err}
	}
	s.mu.Lock()
	u := env.Data.User
	s.user = &u
	s.mu.Unlock()
	return succeeded("login successful")
}

func (s *UserStore) Register(ctx context.Context, req service.RegisterRequest) Result {
	env, err := s.auth.Register(ctx, req)
	if err != nil {
		s.logger.Error("register failed", zap.Error(err))
		return failed(err)
	}
	if !env.OK() {
		return rejected(env, "registration failed")
	}
	return succeeded("registration successful")
}

// Logout forgets the token and the cached profile
func (s *UserStore) Logout() {
	if err := s.tokens.ClearToken(); err != nil {
		s.logger.Warn("failed to clear token", zap.Error(err))
	}
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}

// FetchProfile refreshes the cached profile. A failure means the token is no
// longer usable and it is cleared, unless the caller gave up on the request.
func (s *UserStore) FetchProfile(ctx context.Context) error {
	if !s.IsLoggedIn() {
		return ErrNoSession
	}

	env, err := s.auth.Profile(ctx)
	if err != nil {
		if abandoned(ctx, err) {
			s.logger.Debug("profile fetch abandoned", zap.Error(err))
			return err
		}
		s.logger.Error("failed to fetch profile", zap.Error(err))
		s.clearSession()
		return err
	}
	if !env.OK() || env.Data == nil {
		s.clearSession()
		return env.Err()
	}

	s.mu.Lock()
	u := *env.Data
	s.user = &u
	s.mu.Unlock()
	return nil
}

// Initialize restores the session from a persisted token
func (s *UserStore) Initialize(ctx context.Context) {
	if !s.IsLoggedIn() {
		return
	}
	if err := s.FetchProfile(ctx); err != nil {
		s.logger.Info("stored session is no longer valid", zap.Error(err))
	}
}

// UpdatePreferences merges updates into the local preferences
func (s *UserStore) UpdatePreferences(u PreferencesUpdate) Preferences {
	s.mu.Lock()
	if u.EmailNotifications != nil {
		s.preferences.EmailNotifications = *u.EmailNotifications
	}
	if u.MarketingEmails != nil {
		s.preferences.MarketingEmails = *u.MarketingEmails
	}
	if u.DarkMode != nil {
		s.preferences.DarkMode = *u.DarkMode
	}
	prefs := s.preferences
	s.mu.Unlock()

	s.savePreferences(prefs)
	return prefs
}

// UpdateProfile pushes profile changes and patches the cached nickname
func (s *UserStore) UpdateProfile(ctx context.Context, req service.UpdateProfileRequest) Result {
	env, err := s.users.UpdateProfile(ctx, req)
	if err != nil {
		s.logger.Error("failed to update profile", zap.Error(err))
		return failed(err)
	}
	if !env.OK() {
		return rejected(env, "update failed")
	}

	s.mu.Lock()
	if s.user != nil && req.Nickname != "" {
		s.user.Nickname = req.Nickname
	}
	s.mu.Unlock()
	return succeeded("profile updated")
}

func (s *UserStore) ChangePassword(ctx context.Context, oldPassword, newPassword string) Result {
	env, err := s.users.ChangePassword(ctx, service.ChangePasswordRequest{
		OldPassword: oldPassword,
		NewPassword: newPassword,
	})
	if err != nil {
		s.logger.Error("failed to change password", zap.Error(err))
		return failed(err)
	}
	if !env.OK() {
		return rejected(env, "password change failed")
	}
	return succeeded("password changed")
}

// abandoned reports whether err came from the caller cancelling ctx rather
// than from the backend
func abandoned(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (s *UserStore) clearSession() {
	if err := s.tokens.ClearToken(); err != nil {
		s.logger.Warn("failed to clear token", zap.Error(err))
	}
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}

func (s *UserStore) loadPreferences() {
	if s.kv == nil {
		return
	}
	raw, ok, err := s.kv.Get(preferencesKey)
	if err != nil || !ok {
		return
	}
	var p Preferences
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.logger.Warn("ignoring malformed preferences", zap.Error(err))
		return
	}
	s.preferences = p
}

func (s *UserStore) savePreferences(p Preferences) {
	if s.kv == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.kv.Set(preferencesKey, string(raw)); err != nil {
		s.logger.Warn("failed to persist preferences", zap.Error(err))
	}
}
