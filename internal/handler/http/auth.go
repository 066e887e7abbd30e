package handler

//go:generate mockgen -source=auth.go -destination=mocks/auth.go -package=mocks

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rookgm/foodorder/internal/models"
)

type AuthService interface {
	RegisterUser(ctx context.Context, creds models.Credentials) (string, error)
	LoginUser(ctx context.Context, creds models.Credentials) (string, error)
	LoginRestaurant(ctx context.Context, creds models.Credentials) (string, error)
	UpdatePushToken(ctx context.Context, userID uuid.UUID, token string) error
}

// AuthHandler represents HTTP handler for registration and login
type AuthHandler struct {
	svc AuthService
}

// NewAuthHandler creates new AuthHandler instance
func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type accountResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type AuthResponse struct {
	User accountResponse `json:"user"`
}

type pushTokenRequest struct {
	Token string `json:"token"`
}

func decodeCredentials(r *http.Request) (models.Credentials, bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return models.Credentials{}, false
	}
	defer r.Body.Close()

	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return models.Credentials{}, false
	}

	return models.Credentials{Username: strings.TrimSpace(req.Username), Password: req.Password}, true
}

// RegisterUser registers new user
// 201 - пользователь зарегистрирован;
// 400 - неверный формат запроса;
// 409 - логин уже занят;
// 500 - внутренняя ошибка сервера.
func (ah *AuthHandler) RegisterUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds, ok := decodeCredentials(r)
		if !ok {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		token, err := ah.svc.RegisterUser(r.Context(), creds)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, AuthResponse{User: accountResponse{Token: token, Username: creds.Username}})
	}
}

// LoginUser authenticates user
// 200 - пользователь аутентифицирован;
// 400 - неверный формат запроса;
// 401 - неверная пара логин/пароль.
func (ah *AuthHandler) LoginUser() http.HandlerFunc {
	return ah.login(ah.svc.LoginUser)
}

// LoginRestaurant authenticates restaurant
func (ah *AuthHandler) LoginRestaurant() http.HandlerFunc {
	return ah.login(ah.svc.LoginRestaurant)
}

func (ah *AuthHandler) login(fn func(ctx context.Context, creds models.Credentials) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds, ok := decodeCredentials(r)
		if !ok {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		token, err := fn(r.Context(), creds)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, AuthResponse{User: accountResponse{Token: token, Username: creds.Username}})
	}
}

// UpdatePushToken stores Expo push token of user device
// 204 - токен сохранен;
// 400 - пустой токен.
func (ah *AuthHandler) UpdatePushToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, models.ActorUser)
		if !ok {
			return
		}

		var req pushTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Token) == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		if err := ah.svc.UpdatePushToken(r.Context(), actor.ID, req.Token); err != nil {
			writeError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
