package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rookgm/foodorder/internal/logger"
	"github.com/rookgm/foodorder/internal/models"
	"go.uber.org/zap"
)

// expo accepts at most 100 messages per request
const maxPushBatch = 100

// Store persists notifications and looks up push tokens
type Store interface {
	CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error)
	PushTokens(ctx context.Context, recipientID *uuid.UUID) ([]string, error)
}

// Dispatcher saves notifications and delivers them through Expo push
type Dispatcher struct {
	store   Store
	pushURL string
	client  *http.Client
}

// NewDispatcher creates new Dispatcher instance
func NewDispatcher(store Store, pushURL string, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		store:   store,
		pushURL: pushURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type pushMessage struct {
	To    string `json:"to"`
	Title string `json:"title"`
	Body  string `json:"body"`
	TTL   int    `json:"ttl,omitempty"`
	Sound string `json:"sound"`
}

// Notify stores notification and pushes it to recipient devices.
// Nil recipient broadcasts to every user with a push token.
func (d *Dispatcher) Notify(ctx context.Context, senderID, recipientID *uuid.UUID, title, body string, ttlMinutes int) error {
	n := &models.Notification{
		ID:          uuid.New(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Title:       title,
		Body:        body,
		TTLMinutes:  ttlMinutes,
	}

	if _, err := d.store.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("save notification: %w", err)
	}

	tokens, err := d.store.PushTokens(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("get push tokens: %w", err)
	}
	if len(tokens) == 0 || d.pushURL == "" {
		logger.Log.Debug("notification stored without push", zap.String("notification_id", n.ID.String()))
		return nil
	}

	messages := make([]pushMessage, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, pushMessage{
			To:    token,
			Title: title,
			Body:  body,
			TTL:   ttlMinutes * 60,
			Sound: "default",
		})
	}

	for start := 0; start < len(messages); start += maxPushBatch {
		end := min(start+maxPushBatch, len(messages))
		if err := d.push(ctx, messages[start:end]); err != nil {
			return err
		}
	}

	logger.Log.Debug("notification pushed",
		zap.String("notification_id", n.ID.String()),
		zap.Int("devices", len(messages)),
	)

	return nil
}

func (d *Dispatcher) push(ctx context.Context, messages []pushMessage) error {
	raw, err := json.Marshal(messages)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.pushURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("push notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push notification: unexpected status %d", resp.StatusCode)
	}

	return nil
}
