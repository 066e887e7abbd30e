package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rookgm/foodorder/internal/models"
)

// max broadcast lifetime, one week in minutes
const maxNotificationTTL = 7 * 24 * 60

// NotificationRepository reads stored notifications
type NotificationRepository interface {
	ListUserNotifications(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
	ListRestaurantNotifications(ctx context.Context, restaurantID uuid.UUID) ([]models.Notification, error)
}

// NotificationService serves notification inboxes and restaurant broadcasts
type NotificationService struct {
	repo     NotificationRepository
	notifier Notifier
}

// NewNotificationService creates new NotificationService instance
func NewNotificationService(repo NotificationRepository, notifier Notifier) *NotificationService {
	return &NotificationService{repo: repo, notifier: notifier}
}

// ListNotifications returns user inbox or broadcasts sent by restaurant
func (ns *NotificationService) ListNotifications(ctx context.Context, actor models.Identity) ([]models.Notification, error) {
	switch actor.Kind {
	case models.ActorUser:
		return ns.repo.ListUserNotifications(ctx, actor.ID)
	case models.ActorRestaurant:
		return ns.repo.ListRestaurantNotifications(ctx, actor.ID)
	}

	return nil, models.ErrForbidden
}

// Broadcast sends notification from restaurant to every user
func (ns *NotificationService) Broadcast(ctx context.Context, restaurantID uuid.UUID, title, body string, ttlMinutes int) error {
	title = strings.TrimSpace(title)
	if title == "" || ttlMinutes <= 0 || ttlMinutes > maxNotificationTTL {
		return models.ErrInvalidNotification
	}

	return ns.notifier.Notify(ctx, &restaurantID, nil, title, body, ttlMinutes)
}
