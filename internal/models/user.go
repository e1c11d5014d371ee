package models

import "time"

// User is a registered account. Email is unique.
// PasswordHash is serialized for the stores; handlers encode PublicUser only.
type User struct {
	UserID       string    `json:"user_id" badgerhold:"key"`
	Name         string    `json:"name"`
	Email        string    `json:"email" badgerhold:"index"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// PublicUser is the client-facing view of a User. It never carries the hash.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public strips private fields.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.UserID, Name: u.Name, Email: u.Email}
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	User  PublicUser `json:"user"`
	Token string     `json:"token"`
}
