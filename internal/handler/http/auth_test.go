package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/rookgm/foodorder/internal/handler/http/mocks"
	"github.com/rookgm/foodorder/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_RegisterUser(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setup          func(t *testing.T) *mocks.MockAuthService
		wantStatusCode int
		wantBody       *AuthResponse
	}{
		{
			// 201 - пользователь зарегистрирован
			name: "valid_request_return_201",
			body: `{"username":"alice","password":"secret"}`,
			setup: func(t *testing.T) *mocks.MockAuthService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockAuthService(ctrl)
				svcMock.EXPECT().RegisterUser(gomock.Any(), models.Credentials{Username: "alice", Password: "secret"}).Return("token", nil)
				return svcMock
			},
			wantStatusCode: http.StatusCreated,
			wantBody:       &AuthResponse{User: accountResponse{Token: "token", Username: "alice"}},
		},
		{
			// 400 - пустой пароль
			name: "empty_password_return_400",
			body: `{"username":"alice"}`,
			setup: func(t *testing.T) *mocks.MockAuthService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockAuthService(ctrl)
				svcMock.EXPECT().RegisterUser(gomock.Any(), gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			// 409 - логин уже занят
			name: "duplicate_username_return_409",
			body: `{"username":"alice","password":"secret"}`,
			setup: func(t *testing.T) *mocks.MockAuthService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockAuthService(ctrl)
				svcMock.EXPECT().RegisterUser(gomock.Any(), gomock.Any()).Return("", models.ErrConflictData)
				return svcMock
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			// 500 - внутренняя ошибка сервера
			name: "internal_error_return_500",
			body: `{"username":"alice","password":"secret"}`,
			setup: func(t *testing.T) *mocks.MockAuthService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockAuthService(ctrl)
				svcMock.EXPECT().RegisterUser(gomock.Any(), gomock.Any()).Return("", errors.New("db down"))
				return svcMock
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(t, http.MethodPost, "/api/users", tt.body, nil, nil)

			w := httptest.NewRecorder()
			handler := NewAuthHandler(tt.setup(t))
			h := handler.RegisterUser()
			h(w, req)

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)

			if tt.wantBody != nil {
				var got AuthResponse
				require.NoError(t, json.NewDecoder(res.Body).Decode(&got))

				if diff := cmp.Diff(*tt.wantBody, got); diff != "" {
					t.Errorf("mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name           string
		restaurant     bool
		body           string
		setup          func(t *testing.T) *mocks.MockAuthService
		wantStatusCode int
	}{
		{
			name: "user_login_return_200",
			body: `{"username":"alice","password":"secret"}`,
			setup: func(t *testing.T) *mocks.MockAuthService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockAuthService(ctrl)
				svcMock.EXPECT().LoginUser(gomock.Any(), models.Credentials{Username: "alice", Password: "secret"}).Return("token", nil)
				return svcMock
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "wrong_password_return_401",
			body: `{"username":"alice","password":"wrong"}`,
			setup: func(t *testing.T) *mocks.MockAuthService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockAuthService(ctrl)
				svcMock.EXPECT().LoginUser(gomock.Any(), gomock.Any()).Return("", models.ErrInvalidCredentials)
				return svcMock
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:       "restaurant_login_return_200",
			restaurant: true,
			body:       `{"username":"diner","password":"kitchen"}`,
			setup: func(t *testing.T) *mocks.MockAuthService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockAuthService(ctrl)
				svcMock.EXPECT().LoginRestaurant(gomock.Any(), models.Credentials{Username: "diner", Password: "kitchen"}).Return("token", nil)
				return svcMock
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:       "malformed_body_return_400",
			restaurant: true,
			body:       `username=diner`,
			setup: func(t *testing.T) *mocks.MockAuthService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockAuthService(ctrl)
				svcMock.EXPECT().LoginRestaurant(gomock.Any(), gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(t, http.MethodPost, "/api/users/login", tt.body, nil, nil)

			w := httptest.NewRecorder()
			handler := NewAuthHandler(tt.setup(t))
			h := handler.LoginUser()
			if tt.restaurant {
				h = handler.LoginRestaurant()
			}
			h(w, req)

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)
		})
	}
}

func TestAuthHandler_UpdatePushToken(t *testing.T) {
	tests := []struct {
		name           string
		token          *models.TokenPayload
		body           string
		setup          func(t *testing.T) *mocks.MockAuthService
		wantStatusCode int
	}{
		{
			name:  "valid_request_return_204",
			token: userToken,
			body:  `{"token":"ExponentPushToken[x]"}`,
			setup: func(t *testing.T) *mocks.MockAuthService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockAuthService(ctrl)
				svcMock.EXPECT().UpdatePushToken(gomock.Any(), testUserID, "ExponentPushToken[x]").Return(nil)
				return svcMock
			},
			wantStatusCode: http.StatusNoContent,
		},
		{
			name:  "empty_token_return_400",
			token: userToken,
			body:  `{"token":""}`,
			setup: func(t *testing.T) *mocks.MockAuthService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockAuthService(ctrl)
				svcMock.EXPECT().UpdatePushToken(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:  "restaurant_request_return_403",
			token: restaurantToken,
			body:  `{"token":"ExponentPushToken[x]"}`,
			setup: func(t *testing.T) *mocks.MockAuthService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockAuthService(ctrl)
				svcMock.EXPECT().UpdatePushToken(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(t, http.MethodPost, "/api/users/push-token", tt.body, tt.token, nil)

			w := httptest.NewRecorder()
			NewAuthHandler(tt.setup(t)).UpdatePushToken()(w, req)

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)
		})
	}
}
