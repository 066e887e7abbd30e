package handler

//go:generate mockgen -source=notification.go -destination=mocks/notification.go -package=mocks

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rookgm/foodorder/internal/models"
)

type NotificationService interface {
	// ListNotifications returns user inbox or broadcasts of restaurant
	ListNotifications(ctx context.Context, actor models.Identity) ([]models.Notification, error)
	Broadcast(ctx context.Context, restaurantID uuid.UUID, title, body string, ttlMinutes int) error
}

// NotificationHandler represents HTTP handler for notification requests
type NotificationHandler struct {
	svc NotificationService
}

// NewNotificationHandler creates new NotificationHandler instance
func NewNotificationHandler(svc NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

type broadcastRequest struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	TTLMinutes int    `json:"ttl_minutes"`
}

type NotificationResponse struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Body           string `json:"body"`
	RestaurantID   string `json:"restaurant_id,omitempty"`
	RestaurantName string `json:"restaurant_name,omitempty"`
	TTLMinutes     int    `json:"ttl_minutes"`
	CreatedAt      string `json:"created_at"`
}

func newNotificationsResponse(notifications []models.Notification) []NotificationResponse {
	resp := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		nr := NotificationResponse{
			ID:             n.ID.String(),
			Title:          n.Title,
			Body:           n.Body,
			RestaurantName: n.SenderName,
			TTLMinutes:     n.TTLMinutes,
			CreatedAt:      n.CreatedAt.Format(time.RFC3339),
		}
		if n.SenderID != nil {
			nr.RestaurantID = n.SenderID.String()
		}
		resp = append(resp, nr)
	}
	return resp
}

// ListNotifications returns notifications of caller
// 200 - список уведомлений;
// 401 - пользователь не аутентифицирован.
func (nh *NotificationHandler) ListNotifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, models.ActorUser, models.ActorRestaurant)
		if !ok {
			return
		}

		notifications, err := nh.svc.ListNotifications(r.Context(), actor)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, newNotificationsResponse(notifications))
	}
}

// Broadcast sends restaurant notification to all users
// 202 - уведомление отправлено;
// 400 - неверный формат запроса;
// 403 - рассылку может сделать только ресторан.
func (nh *NotificationHandler) Broadcast() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, models.ActorRestaurant)
		if !ok {
			return
		}

		var req broadcastRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		if err := nh.svc.Broadcast(r.Context(), actor.ID, req.Title, req.Body, req.TTLMinutes); err != nil {
			writeError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusAccepted)
	}
}
