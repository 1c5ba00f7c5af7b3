// Package models defines the client-side records kept by the local store.
package models

import "time"

// User is a local account. PasswordHash is an encoded argon2id hash and is
// never returned to callers outside the store; see User.Public.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password"`
	FirstName    string    `json:"firstname"`
	LastName     string    `json:"lastname"`
	CreatedAt    time.Time `json:"created_at"`
}

// Public returns a copy of u with the password hash cleared.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

// Bookmark is a node address saved by one user. (UserID, Node) is unique.
type Bookmark struct {
	UserID      string    `json:"user_id"`
	Node        string    `json:"node"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
