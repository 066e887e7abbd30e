package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rookgm/foodorder/internal/models"
	"github.com/rookgm/foodorder/internal/repository/postgres"
)

const (
	insertUserQuery = `
						INSERT INTO users (id, username, password_hash)
						VALUES ($1, $2, $3)
						RETURNING created_at
`
	selectUserByUsernameQuery = `
						SELECT id, username, password_hash, created_at FROM users
						WHERE username = $1
`
	updatePushTokenQuery = `
						UPDATE users SET expo_push_token = $2
						WHERE id = $1
`
	selectRestaurantByUsernameQuery = `
						SELECT id, username, name, password_hash FROM restaurants
						WHERE username = $1
`
)

// UserRepository implements UserRepository interface
type UserRepository struct {
	db *postgres.DB
}

// NewUserRepository creates new UserRepository instance
func NewUserRepository(db *postgres.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts new user
func (ur *UserRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	err := ur.db.Conn(ctx).QueryRow(ctx, insertUserQuery, user.ID, user.Username, user.PasswordHash).Scan(&user.CreatedAt)
	if err != nil {
		if errCode := ur.db.ErrorCode(err); errCode == pgErrUniqueViolationCode {
			return nil, models.ErrConflictData
		}
		return nil, err
	}

	return user, nil
}

// GetUserByUsername returns user by username
func (ur *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := models.User{}
	err := ur.db.Conn(ctx).QueryRow(ctx, selectUserByUsernameQuery, username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return &user, nil
}

// GetRestaurantByUsername returns restaurant account by username
func (ur *UserRepository) GetRestaurantByUsername(ctx context.Context, username string) (*models.Restaurant, error) {
	r := models.Restaurant{}
	err := ur.db.Conn(ctx).QueryRow(ctx, selectRestaurantByUsernameQuery, username).Scan(&r.ID, &r.Username, &r.Name, &r.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return &r, nil
}

// UpdatePushToken stores device push token of user
func (ur *UserRepository) UpdatePushToken(ctx context.Context, userID uuid.UUID, token string) error {
	cmd, err := ur.db.Conn(ctx).Exec(ctx, updatePushTokenQuery, userID, token)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrDataNotFound
	}

	return nil
}
