package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/rookgm/foodorder/internal/models"
	"github.com/rookgm/foodorder/internal/repository/postgres"
)

const (
	insertNotificationQuery = `
						INSERT INTO notifications (id, sender_id, recipient_id, title, body, ttl_minutes)
						VALUES ($1, $2, $3, $4, $5, $6)
						RETURNING created_at
`
	selectPushTokenByUserQuery = `
						SELECT expo_push_token FROM users
						WHERE id = $1 AND expo_push_token IS NOT NULL
`
	selectAllPushTokensQuery = `
						SELECT expo_push_token FROM users
						WHERE expo_push_token IS NOT NULL
`
	selectUserNotificationsQuery = `
						SELECT n.id, n.sender_id, n.recipient_id, n.title, n.body, n.ttl_minutes, n.created_at, r.name
						FROM notifications n
						JOIN restaurants r ON r.id = n.sender_id
						WHERE n.recipient_id = $1 OR n.recipient_id IS NULL
						ORDER BY n.created_at DESC
`
	selectRestaurantNotificationsQuery = `
						SELECT n.id, n.sender_id, n.recipient_id, n.title, n.body, n.ttl_minutes, n.created_at, r.name
						FROM notifications n
						JOIN restaurants r ON r.id = n.sender_id
						WHERE n.sender_id = $1 AND n.recipient_id IS NULL
						ORDER BY n.created_at DESC
`
)

// NotificationRepository stores notifications and reads push tokens
type NotificationRepository struct {
	db *postgres.DB
}

// NewNotificationRepository creates new NotificationRepository instance
func NewNotificationRepository(db *postgres.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateNotification inserts notification
func (nr *NotificationRepository) CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	err := nr.db.Conn(ctx).QueryRow(ctx, insertNotificationQuery, n.ID, n.SenderID, n.RecipientID, n.Title, n.Body, n.TTLMinutes).Scan(&n.CreatedAt)
	if err != nil {
		return nil, err
	}

	return n, nil
}

// PushTokens returns push tokens of recipient, or of all users if recipient is nil
func (nr *NotificationRepository) PushTokens(ctx context.Context, recipientID *uuid.UUID) ([]string, error) {
	query, args := selectAllPushTokensQuery, []any{}
	if recipientID != nil {
		query, args = selectPushTokenByUserQuery, []any{*recipientID}
	}

	rows, err := nr.db.Conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tokens, nil
}

// ListUserNotifications returns restaurant notifications addressed to user and broadcasts, newest first
func (nr *NotificationRepository) ListUserNotifications(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	return nr.listNotifications(ctx, selectUserNotificationsQuery, userID)
}

// ListRestaurantNotifications returns broadcasts sent by restaurant, newest first
func (nr *NotificationRepository) ListRestaurantNotifications(ctx context.Context, restaurantID uuid.UUID) ([]models.Notification, error) {
	return nr.listNotifications(ctx, selectRestaurantNotificationsQuery, restaurantID)
}

func (nr *NotificationRepository) listNotifications(ctx context.Context, query string, ownerID uuid.UUID) ([]models.Notification, error) {
	rows, err := nr.db.Conn(ctx).Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		err := rows.Scan(&n.ID, &n.SenderID, &n.RecipientID, &n.Title, &n.Body, &n.TTLMinutes, &n.CreatedAt, &n.SenderName)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notifications, nil
}
