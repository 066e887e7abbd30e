package models

import "time"

// TokenPayload is the verified content of a bearer token.
type TokenPayload struct {
	Identity  Identity
	ExpiresAt time.Time
}
