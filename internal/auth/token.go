package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/rookgm/foodorder/internal/models"
)

// TokenTTL is lifetime of issued token
const TokenTTL = 7 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	jwt.RegisteredClaims
	Kind models.ActorKind `json:"kind"`
	ID   uuid.UUID        `json:"id"`
}

// Token issues and verifies HMAC-SHA384 signed bearer tokens
type Token struct {
	key []byte
	now func() time.Time
}

// NewAuthToken creates new Token with signing key
func NewAuthToken(key []byte) *Token {
	return &Token{key: key, now: time.Now}
}

// CreateToken creates token for identity
func (t *Token) CreateToken(id models.Identity) (string, error) {
	now := t.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
		Kind: id.Kind,
		ID:   id.ID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS384, c)

	return token.SignedString(t.key)
}

// VerifyToken checks signature and expiry and returns payload
func (t *Token) VerifyToken(tokenString string) (*models.TokenPayload, error) {
	var c claims

	parser := jwt.Parser{
		ValidMethods: []string{jwt.SigningMethodHS384.Alg()},
	}

	token, err := parser.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.key, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if c.Kind != models.ActorUser && c.Kind != models.ActorRestaurant {
		return nil, ErrInvalidToken
	}
	if c.ID == uuid.Nil || c.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}

	return &models.TokenPayload{
		Identity:  models.Identity{Kind: c.Kind, ID: c.ID},
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}
