package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/apex/log"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bryanwahyu/photo-critic/internal/application"
	domain "github.com/bryanwahyu/photo-critic/internal/domain/users"
)

const (
	minUsername = 3
	maxUsername = 50
	minPassword = 6
	// bcrypt ignores everything past 72 bytes
	maxPassword = 72
)

// TokenIssuer signs bearer tokens for a user id
type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
}

type Service struct {
	Repo   domain.Repository
	Tokens TokenIssuer
	Clock  application.Clock
	Cost   int
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Token is the login response body
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (s *Service) Register(ctx context.Context, in Credentials) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	if n := utf8.RuneCountInString(username); n < minUsername || n > maxUsername {
		return nil, fmt.Errorf("%w: username must be %d-%d characters", domain.ErrInvalidInput, minUsername, maxUsername)
	}
	if n := len(in.Password); n < minPassword || n > maxPassword {
		return nil, fmt.Errorf("%w: password must be %d-%d bytes", domain.ErrInvalidInput, minPassword, maxPassword)
	}

	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	u := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"user_id": u.ID, "username": u.Username}).Info("user registered")
	return u, nil
}

// Login checks the password and issues a bearer token. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, in Credentials) (Token, error) {
	u, err := s.Repo.GetByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Token{}, domain.ErrInvalidCredentials
		}
		return Token{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return Token{}, domain.ErrInvalidCredentials
	}

	tok, exp, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: tok, TokenType: "bearer", ExpiresAt: exp}, nil
}

func (s *Service) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.Repo.GetByID(ctx, userID)
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return application.SystemClock{}.Now()
	}
	return s.Clock.Now()
}
