package models

import "time"

type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FavoriteCity string    `json:"favorite_city,omitempty"`
	IsAdmin      bool      `json:"is_admin"`
	PasswordHash string    `json:"-"`
	APIToken     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the authenticated principal resolved from a credential.
// It is fixed for the lifetime of a request or live connection.
type Identity struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// Message is a persisted chat message. ID is assigned by the store at
// append time and is strictly increasing within a room.
type Message struct {
	ID          int64     `json:"id"`
	Room        string    `json:"room"`
	Content     string    `json:"content"`
	AuthorID    int       `json:"authorId"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}
