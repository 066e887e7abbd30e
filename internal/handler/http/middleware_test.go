package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/rookgm/foodorder/internal/handler/http/mocks"
	"github.com/rookgm/foodorder/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestAuthMiddleware(t *testing.T) {
	payload := &models.TokenPayload{Identity: models.UserIdentity(uuid.New())}

	tests := []struct {
		name           string
		header         string
		setup          func(t *testing.T) *mocks.MockTokenVerifier
		wantStatusCode int
	}{
		{
			name:   "valid_token_return_200",
			header: "Bearer good",
			setup: func(t *testing.T) *mocks.MockTokenVerifier {
				ctrl := gomock.NewController(t)

				tvMock := mocks.NewMockTokenVerifier(ctrl)
				tvMock.EXPECT().VerifyToken("good").Return(payload, nil)
				return tvMock
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "missing_header_return_401",
			setup: func(t *testing.T) *mocks.MockTokenVerifier {
				ctrl := gomock.NewController(t)

				tvMock := mocks.NewMockTokenVerifier(ctrl)
				tvMock.EXPECT().VerifyToken(gomock.Any()).Times(0)
				return tvMock
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:   "invalid_token_return_401",
			header: "Bearer bad",
			setup: func(t *testing.T) *mocks.MockTokenVerifier {
				ctrl := gomock.NewController(t)

				tvMock := mocks.NewMockTokenVerifier(ctrl)
				tvMock.EXPECT().VerifyToken("bad").Return(nil, errors.New("invalid token"))
				return tvMock
			},
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *models.TokenPayload
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = getAuthPayload(r.Context(), authPayloadKey)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/orders/pending", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			AuthMiddleware(tt.setup(t))(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatusCode, w.Code)
			if tt.wantStatusCode == http.StatusOK {
				assert.Equal(t, payload, got)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}
