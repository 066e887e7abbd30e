package models

import (
	"time"

	"github.com/google/uuid"
)

// User is user entity
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Restaurant is restaurant account used for login
type Restaurant struct {
	ID           uuid.UUID
	Username     string
	Name         string
	PasswordHash string
}

// Credentials is login and password sent by client
type Credentials struct {
	Username string
	Password string
}
