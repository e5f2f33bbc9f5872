package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionTTL     = 30 * 24 * time.Hour
	minPasswordLen = 8
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrSessionExpired     = errors.New("session expired or invalid")
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,32}$`)

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

type Session struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Manager struct {
	db  *pgxpool.Pool
	log *slog.Logger
}

func NewManager(db *pgxpool.Pool, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{db: db, log: logger}
}

func (m *Manager) Register(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if !usernameRe.MatchString(username) {
		return Session{}, fmt.Errorf("username must be 3-32 chars of letters, digits, _ or -")
	}
	if len(password) < minPasswordLen {
		return Session{}, fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	var user User
	err = m.db.QueryRow(ctx, `
		INSERT INTO users.accounts (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, username, is_admin
	`, username, string(hash)).Scan(&user.ID, &user.Username, &user.IsAdmin)
	if err != nil {
		if isUniqueViolation(err) {
			return Session{}, ErrUsernameTaken
		}
		return Session{}, err
	}
	return m.createSession(ctx, user)
}

func (m *Manager) Login(ctx context.Context, username, password string) (Session, error) {
	var user User
	var hash string
	err := m.db.QueryRow(ctx, `
		SELECT id, username, is_admin, password_hash
		FROM users.accounts
		WHERE username = $1
	`, strings.TrimSpace(username)).Scan(&user.ID, &user.Username, &user.IsAdmin, &hash)
	if err == pgx.ErrNoRows {
		// Burn the same time as a real compare so missing users are not
		// distinguishable by latency.
		bcrypt.CompareHashAndPassword([]byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5B1WZt6bCkMIvnnVeH0D1p7x9p7xa"), []byte(password))
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}
	return m.createSession(ctx, user)
}

// Verify resolves a bearer token to its user. Expired sessions are deleted on
// sight rather than by a background sweeper.
func (m *Manager) Verify(ctx context.Context, token string) (User, error) {
	if token == "" {
		return User{}, ErrSessionExpired
	}
	var user User
	var expiresAt time.Time
	err := m.db.QueryRow(ctx, `
		SELECT a.id, a.username, a.is_admin, s.expires_at
		FROM users.sessions s
		JOIN users.accounts a ON a.id = s.user_id
		WHERE s.token = $1
	`, token).Scan(&user.ID, &user.Username, &user.IsAdmin, &expiresAt)
	if err == pgx.ErrNoRows {
		return User{}, ErrSessionExpired
	}
	if err != nil {
		return User{}, err
	}
	if time.Now().After(expiresAt) {
		_, _ = m.db.Exec(ctx, `DELETE FROM users.sessions WHERE token = $1`, token)
		return User{}, ErrSessionExpired
	}
	return user, nil
}

func (m *Manager) Logout(ctx context.Context, token string) error {
	_, err := m.db.Exec(ctx, `DELETE FROM users.sessions WHERE token = $1`, token)
	return err
}

// EnsureAdmin creates or resets the admin account from configuration. Called
// once at startup; a blank password leaves any existing admin untouched.
func (m *Manager) EnsureAdmin(ctx context.Context, password string) error {
	if password == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = m.db.Exec(ctx, `
		INSERT INTO users.accounts (username, password_hash, is_admin)
		VALUES ('admin', $1, true)
		ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash, is_admin = true
	`, string(hash))
	return err
}

func (m *Manager) createSession(ctx context.Context, user User) (Session, error) {
	token, err := newToken()
	if err != nil {
		return Session{}, err
	}
	expiresAt := time.Now().Add(sessionTTL)
	if _, err := m.db.Exec(ctx, `
		INSERT INTO users.sessions (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, token, user.ID, expiresAt); err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user, ExpiresAt: expiresAt}, nil
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
