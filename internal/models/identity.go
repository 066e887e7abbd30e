package models

import "github.com/google/uuid"

// ActorKind tells users and restaurants apart.
type ActorKind string

const (
	ActorUser       ActorKind = "user"
	ActorRestaurant ActorKind = "restaurant"
)

// Identity is the authenticated caller, either a user or a restaurant.
type Identity struct {
	Kind ActorKind
	ID   uuid.UUID
}

// UserIdentity returns identity of user
func UserIdentity(id uuid.UUID) Identity {
	return Identity{Kind: ActorUser, ID: id}
}

// RestaurantIdentity returns identity of restaurant
func RestaurantIdentity(id uuid.UUID) Identity {
	return Identity{Kind: ActorRestaurant, ID: id}
}
