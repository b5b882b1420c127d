package service

import (
	"alcyxob/workout-log/internal/domain"
	"alcyxob/workout-log/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrTokenGeneration = errors.New("failed to generate authentication token")
	ErrUnknownUser     = errors.New("user does not exist")
)

// AuthService issues anonymous identities. Every workout record is scoped to
// the user id carried in the token.
type AuthService interface {
	IssueAnonymous(ctx context.Context) (token string, user *domain.User, err error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	GetJWTSecret() string
}

type authService struct {
	userRepo      repository.UserRepository
	jwtSecret     string
	jwtExpiration time.Duration
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpiration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty")
	}
	if jwtExpiration <= 0 {
		jwtExpiration = 720 * time.Hour
	}
	return &authService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// IssueAnonymous creates a fresh user and returns a token for it.
func (s *authService) IssueAnonymous(ctx context.Context) (string, *domain.User, error) {
	user := &domain.User{ID: uuid.NewString()}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return "", nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.generateJWT(user.ID)
	if err != nil {
		log.WithError(err).WithField("user", user.ID).Error("failed to sign token")
		return "", nil, ErrTokenGeneration
	}

	log.WithField("user", user.ID).Info("anonymous user issued")
	return token, user, nil
}

// GetUser returns the user and records that it was seen.
func (s *authService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if err := s.userRepo.Touch(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnknownUser
	}
	return user, err
}

// JWTClaims is the token payload shared with the API middleware.
type JWTClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

func (s *authService) generateJWT(userID string) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "workout-log",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// GetJWTSecret returns the JWT secret for middleware authentication
func (s *authService) GetJWTSecret() string {
	return s.jwtSecret
}
