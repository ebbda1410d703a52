package models

import "time"

// User represents a registered user account.
type User struct {
	// ID is the unique, database-assigned identifier for the user.
	ID int64

	// Email is the user's email address (unique).
	// Used for login.
	Email string

	// DisplayName is shown to friends and group members.
	DisplayName string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last profile change.
	UpdatedAt int64
}

// NewUser builds a user record ready to be stored. The ID is assigned by
// the store.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
