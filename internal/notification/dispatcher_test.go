package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rookgm/foodorder/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	saved     []models.Notification
	tokens    []string
	saveErr   error
	tokensErr error
}

func (s *fakeStore) CreateNotification(_ context.Context, n *models.Notification) (*models.Notification, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	s.saved = append(s.saved, *n)
	return n, nil
}

func (s *fakeStore) PushTokens(_ context.Context, _ *uuid.UUID) ([]string, error) {
	return s.tokens, s.tokensErr
}

func TestDispatcher_Notify(t *testing.T) {
	var got []pushMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	store := &fakeStore{tokens: []string{"ExponentPushToken[a]", "ExponentPushToken[b]"}}
	d := NewDispatcher(store, srv.URL, time.Second)

	sender, recipient := uuid.New(), uuid.New()
	err := d.Notify(context.Background(), &sender, &recipient, "Order complete", "Your order is ready", 60)
	require.NoError(t, err)

	require.Len(t, store.saved, 1)
	assert.Equal(t, "Order complete", store.saved[0].Title)
	assert.Equal(t, &recipient, store.saved[0].RecipientID)

	require.Len(t, got, 2)
	assert.Equal(t, "ExponentPushToken[a]", got[0].To)
	assert.Equal(t, 3600, got[0].TTL)
	assert.Equal(t, "Your order is ready", got[1].Body)
}

func TestDispatcher_NotifyWithoutTokens(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	store := &fakeStore{}
	d := NewDispatcher(store, srv.URL, time.Second)

	require.NoError(t, d.Notify(context.Background(), nil, nil, "t", "b", 0))
	assert.Len(t, store.saved, 1)
	assert.Zero(t, calls)
}

func TestDispatcher_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	storeErr := errors.New("db down")

	tests := []struct {
		name  string
		store *fakeStore
	}{
		{name: "save fails", store: &fakeStore{saveErr: storeErr}},
		{name: "token lookup fails", store: &fakeStore{tokensErr: storeErr}},
		{name: "push rejected", store: &fakeStore{tokens: []string{"ExponentPushToken[a]"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher(tt.store, srv.URL, time.Second)
			assert.Error(t, d.Notify(context.Background(), nil, nil, "t", "b", 0))
		})
	}
}
