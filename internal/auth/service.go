package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lanepark/chesshall/internal/obslog"
)

var ErrBadCredentials = errors.New("bad credentials")

// Service issues and verifies user credentials. Passwords are stored
// as bcrypt hashes; successful logins mint a signed JWT.
type Service struct {
	repo     Repository
	secret   []byte
	tokenTTL time.Duration
}

func NewService(repo Repository, secret []byte, tokenTTL time.Duration) *Service {
	return &Service{repo: repo, secret: secret, tokenTTL: tokenTTL}
}

// Register creates a new user and returns a session token for it.
func (s *Service) Register(ctx context.Context, username, password string) (token string, user *User, err error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", nil, ErrBadCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return "", nil, err
	}

	token, err = GenerateToken(u.ID, s.secret, s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	obslog.L().Info("user registered",
		zap.String("event", "auth_register"),
		zap.String("user_id", u.ID))
	return token, u, nil
}

// Login verifies the password and returns a fresh session token.
// Unknown usernames and wrong passwords are indistinguishable to the
// caller.
func (s *Service) Login(ctx context.Context, username, password string) (token string, user *User, err error) {
	u, err := s.repo.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrBadCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return "", nil, ErrBadCredentials
	}

	token, err = GenerateToken(u.ID, s.secret, s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	obslog.L().Info("user logged in",
		zap.String("event", "auth_login"),
		zap.String("user_id", u.ID))
	return token, u, nil
}

// UserByID resolves a token subject back to its user record.
func (s *Service) UserByID(ctx context.Context, id string) (*User, error) {
	return s.repo.ByID(ctx, id)
}

// UserFromToken verifies the token signature and loads its user.
func (s *Service) UserFromToken(ctx context.Context, token string) (*User, error) {
	uid, err := UserIDFromToken(token, s.secret)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return s.repo.ByID(ctx, uid)
}
