package handler

//go:generate mockgen -source=middleware.go -destination=mocks/middleware.go -package=mocks

import (
	"context"
	"net/http"

	"github.com/rookgm/foodorder/internal/middleware"
	"github.com/rookgm/foodorder/internal/models"
)

type contextKey string

const (
	authPayloadKey contextKey = "auth_payload"
)

type TokenVerifier interface {
	VerifyToken(tokenString string) (*models.TokenPayload, error)
}

// AuthMiddleware gets the bearer token from the request and passes its payload to the context
func AuthMiddleware(tv TokenVerifier) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := middleware.BearerToken(r)
			if !ok {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			payload, err := tv.VerifyToken(token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), authPayloadKey, payload)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// getAuthPayload extracts authorization token payload from context
func getAuthPayload(ctx context.Context, key contextKey) (*models.TokenPayload, bool) {
	payload, ok := ctx.Value(key).(*models.TokenPayload)
	return payload, ok && payload != nil
}

// requireActor returns caller identity if its kind is one of kinds.
// Otherwise it writes 401 or 403 and returns false.
func requireActor(w http.ResponseWriter, r *http.Request, kinds ...models.ActorKind) (models.Identity, bool) {
	payload, ok := getAuthPayload(r.Context(), authPayloadKey)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return models.Identity{}, false
	}

	for _, kind := range kinds {
		if payload.Identity.Kind == kind {
			return payload.Identity, true
		}
	}

	http.Error(w, "forbidden", http.StatusForbidden)
	return models.Identity{}, false
}
