package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rookgm/foodorder/internal/logger"
	"github.com/rookgm/foodorder/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TokenService issues and verifies bearer tokens
type TokenService interface {
	CreateToken(id models.Identity) (string, error)
	VerifyToken(tokenString string) (*models.TokenPayload, error)
}

// UserRepository is interface for interacting with account data
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetRestaurantByUsername(ctx context.Context, username string) (*models.Restaurant, error)
	UpdatePushToken(ctx context.Context, userID uuid.UUID, token string) error
}

// AuthService implements registration and login
type AuthService struct {
	repo  UserRepository
	token TokenService
}

// NewAuthService creates new AuthService instance
func NewAuthService(repo UserRepository, token TokenService) *AuthService {
	return &AuthService{
		repo:  repo,
		token: token,
	}
}

// RegisterUser creates user account and returns its token
func (as *AuthService) RegisterUser(ctx context.Context, creds models.Credentials) (string, error) {
	username := strings.TrimSpace(creds.Username)
	if username == "" || creds.Password == "" {
		return "", models.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	user, err := as.repo.CreateUser(ctx, &models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
	})
	if err != nil {
		return "", err
	}

	logger.Log.Debug("user registered", zap.String("user_id", user.ID.String()))

	return as.token.CreateToken(models.UserIdentity(user.ID))
}

// LoginUser checks user password and returns token
func (as *AuthService) LoginUser(ctx context.Context, creds models.Credentials) (string, error) {
	user, err := as.repo.GetUserByUsername(ctx, strings.TrimSpace(creds.Username))
	if err != nil {
		if errors.Is(err, models.ErrDataNotFound) {
			return "", models.ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return "", models.ErrInvalidCredentials
	}

	return as.token.CreateToken(models.UserIdentity(user.ID))
}

// LoginRestaurant checks restaurant password and returns token
func (as *AuthService) LoginRestaurant(ctx context.Context, creds models.Credentials) (string, error) {
	r, err := as.repo.GetRestaurantByUsername(ctx, strings.TrimSpace(creds.Username))
	if err != nil {
		if errors.Is(err, models.ErrDataNotFound) {
			return "", models.ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(r.PasswordHash), []byte(creds.Password)); err != nil {
		return "", models.ErrInvalidCredentials
	}

	return as.token.CreateToken(models.RestaurantIdentity(r.ID))
}

// UpdatePushToken stores device push token of user
func (as *AuthService) UpdatePushToken(ctx context.Context, userID uuid.UUID, token string) error {
	return as.repo.UpdatePushToken(ctx, userID, strings.TrimSpace(token))
}
