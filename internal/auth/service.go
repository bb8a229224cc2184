// Package auth handles accounts and bearer tokens.
package auth

import (
	"context"
	"errors"
	"strings"

	"inventory-marketplace/internal/domain"
	"inventory-marketplace/internal/store"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// RegisterRequest creates an account.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest exchanges credentials for a token.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is returned by Register and Login.
type Session struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Service implements register, login and profile lookup.
type Service struct {
	users  store.UserStorer
	tokens *Tokens
	cost   int
	log    *logrus.Entry
}

// NewService creates a Service.
func NewService(users store.UserStorer, tokens *Tokens, logger *logrus.Logger) *Service {
	return &Service{users: users, tokens: tokens, cost: bcrypt.DefaultCost, log: logger.WithField("component", "auth")}
}

// Register creates a non-admin account and logs it in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	err := validation.ValidateStruct(&req,
		validation.Field(&req.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&req.Email, validation.Required, is.EmailFormat),
		validation.Field(&req.Password, validation.Required, validation.Length(8, 72)),
	)
	if err != nil {
		return nil, domain.FromValidation(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, err
	}
	user, err := s.users.CreateUser(ctx, &domain.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return nil, domain.Conflict("user", 0, "username or email already registered")
		}
		return nil, err
	}
	s.log.WithField("user_id", user.ID).Info("user registered")
	return s.session(user)
}

// Login checks the credentials and returns a fresh token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	invalid := &domain.UnauthenticatedError{Message: "invalid email or password"}
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.log.WithField("user_id", user.ID).Warn("failed login")
		return nil, invalid
	}
	return s.session(user)
}

// Me returns the account of userID.
func (s *Service) Me(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, domain.NotFound("user", userID)
		}
		return nil, err
	}
	return user, nil
}

// Authenticate verifies a bearer token.
func (s *Service) Authenticate(token string) (domain.Principal, error) {
	return s.tokens.Verify(token)
}

func (s *Service) session(user *domain.User) (*Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}
