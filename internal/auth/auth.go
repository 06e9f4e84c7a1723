// Package auth provides login against stored user rows and server-side
// session management. Sessions are explicit objects handed to request
// handlers; there is no process-wide current-user state.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/journal-desktop/journal-backend/internal/store"
	"github.com/journal-desktop/journal-backend/pkg/types"
	"github.com/journal-desktop/journal-backend/pkg/utils"
)

// ErrInvalidCredentials is returned for an unknown user or wrong password.
// The two cases are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// ErrUserExists is returned when registering a taken username.
var ErrUserExists = errors.New("auth: username already taken")

// Session identifies an authenticated caller for the lifetime of a token.
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Manager issues and validates sessions.
type Manager struct {
	mu       sync.RWMutex
	logger   *zap.Logger
	users    store.UserStore
	sessions map[string]Session
	ttl      time.Duration
}

// NewManager creates a session manager. A non-positive ttl defaults to 24h.
func NewManager(logger *zap.Logger, users store.UserStore, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		logger:   logger,
		users:    users,
		sessions: make(map[string]Session),
		ttl:      ttl,
	}
}

// Register creates a new account with a bcrypt-hashed password.
func (m *Manager) Register(ctx context.Context, username, password string) (types.User, error) {
	if _, err := m.users.GetUser(ctx, username); err == nil {
		return types.User{}, ErrUserExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}
	user := types.User{
		ID:           utils.GenerateUserID(),
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := m.users.CreateUser(ctx, user); err != nil {
		return types.User{}, err
	}
	m.logger.Info("user registered", zap.String("username", username))
	return user, nil
}

// Login verifies the password against the stored hash and issues a session.
func (m *Manager) Login(ctx context.Context, username, password string) (Session, error) {
	user, err := m.users.GetUser(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}

	session := Session{
		Token:     utils.GenerateSessionToken(),
		Username:  user.Username,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(m.ttl),
	}
	m.mu.Lock()
	m.sessions[session.Token] = session
	m.mu.Unlock()

	m.logger.Info("user logged in", zap.String("username", username))
	return session, nil
}

// Validate resolves a token to its session. Expired sessions are dropped.
func (m *Manager) Validate(token string) (Session, bool) {
	m.mu.RLock()
	session, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return Session{}, false
	}
	if time.Now().After(session.ExpiresAt) {
		m.mu.Lock()
		delete(m.sessions, token)
		m.mu.Unlock()
		return Session{}, false
	}
	return session, true
}

// Logout invalidates a token. Unknown tokens are a no-op.
func (m *Manager) Logout(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}
