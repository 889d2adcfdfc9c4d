package model

import "time"

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Avatar    string    `json:"avatar"`
	IsStaff   bool      `json:"-"`
	CreatedAt time.Time `json:"-"`
}

// AuthToken is an opaque API key; a user holds at most one.
type AuthToken struct {
	ID        int64     `json:"id"`
	Key       string    `json:"key"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
