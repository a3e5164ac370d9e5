package models

import "time"

// User represents a registered account. Passwords are stored as bcrypt hashes only.
type User struct {
	Username       string    `json:"username"`
	DisplayName    string    `json:"display_name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"password_hash"`
	Bio            string    `json:"bio"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Session is the cached profile of the user logged in on one context.
type Session struct {
	Username       string    `json:"username"`
	DisplayName    string    `json:"display_name"`
	Email          string    `json:"email"`
	Bio            string    `json:"bio"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	LoggedInAt     time.Time `json:"logged_in_at"`
}

// NewSession copies the public profile fields of u.
func NewSession(u User, at time.Time) Session {
	return Session{
		Username:       u.Username,
		DisplayName:    u.DisplayName,
		Email:          u.Email,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		LoggedInAt:     at,
	}
}
