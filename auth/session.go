// Package auth is the boundary to the identity layer. The run listing core
// only ever reads the bearer token and the current user through the small
// interfaces declared here; login and registration live elsewhere.
package auth

import (
	"sync"

	"go.uber.org/zap"

	"pokerunboard/logger"
	"pokerunboard/models"
)

// TokenSource yields the bearer token to attach, or "" for anonymous calls
type TokenSource interface {
	Token() string
}

// SessionClearer drops the stored identity. Called when the backend answers 401.
type SessionClearer interface {
	ClearSession()
}

// CurrentUserFunc is the read-only identity capability handed to views
type CurrentUserFunc func() *models.User

// Session is an in-memory token and user store
type Session struct {
	mu    sync.RWMutex
	token string
	user  *models.User
}

// NewSession creates a session, optionally pre-seeded with a token
func NewSession(token string) *Session {
	return &Session{token: token}
}

// Login stores the token and user returned by a successful sign-in
func (s *Session) Login(token string, user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	if user != nil {
		u := *user
		s.user = &u
	} else {
		s.user = nil
	}
}

// Token implements TokenSource
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// ClearSession implements SessionClearer
func (s *Session) ClearSession() {
	s.mu.Lock()
	hadToken := s.token != ""
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if hadToken {
		logger.Info("Session cleared", zap.String("reason", "unauthorized"))
	}
}

// CurrentUser returns a copy of the signed-in user, or nil
func (s *Session) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsAuthenticated reports whether a token is held
func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}
