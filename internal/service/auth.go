package service

import (
	"log/slog"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
)

// Session is the result of a successful signup or login.
type Session struct {
	UID   string
	Token string
}

func validUsernameChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r == '_' || r == '-'
}

// Signup creates an account and starts its first session. The new token is
// active immediately.
func (s *State) Signup(username, password, displayName, email string) (Session, error) {
	if len(username) < 3 {
		return Session{}, ErrUsernameShort
	}
	for _, r := range username {
		if !validUsernameChar(r) {
			return Session{}, ErrUsernameCharset
		}
	}
	if len(password) < 6 {
		return Session{}, ErrPasswordShort
	}
	if strings.TrimSpace(displayName) == "" {
		return Session{}, ErrDisplayName
	}

	tx, err := s.store.Begin()
	if err != nil {
		return Session{}, err
	}
	defer rollback(tx)

	exists, err := tx.UserExists(username)
	if err != nil {
		return Session{}, err
	}
	if exists {
		return Session{}, ErrUsernameTaken
	}

	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return Session{}, err
	}

	uid := uuid.NewString()
	token := uuid.NewString()
	if err := tx.InsertUser(uid, username, hash, displayName, email, token, time.Now()); err != nil {
		return Session{}, err
	}
	if err := tx.Commit(); err != nil {
		return Session{}, err
	}

	slog.Info("user signed up", "username", username, "uid", uid)
	return Session{UID: uid, Token: token}, nil
}

// Login verifies the password and rotates the session token. Any previous
// session for the account stops working.
func (s *State) Login(username, password string) (Session, error) {
	tx, err := s.store.Begin()
	if err != nil {
		return Session{}, err
	}
	defer rollback(tx)

	uid, hash, ok, err := tx.Credentials(username)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrInvalidLogin
	}

	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil || !match {
		return Session{}, ErrInvalidLogin
	}

	token := uuid.NewString()
	if err := tx.SetToken(token, uid); err != nil {
		return Session{}, err
	}
	if err := tx.Commit(); err != nil {
		return Session{}, err
	}

	slog.Info("user logged in", "username", username, "uid", uid)
	return Session{UID: uid, Token: token}, nil
}

// Logout invalidates the session token.
func (s *State) Logout(token string) error {
	tx, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer rollback(tx)

	rows, err := tx.ClearToken(token)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInvalidToken
	}
	return tx.Commit()
}

// ValidateToken resolves a session token to its uid without hydrating the
// user record.
func (s *State) ValidateToken(token string) (string, error) {
	tx, err := s.store.Begin()
	if err != nil {
		return "", err
	}
	defer rollback(tx)

	uid, ok, err := tx.UserIDByToken(token)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInvalidToken
	}
	return uid, tx.Commit()
}
