// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data. There is no inheritance;
// Go favours composition over inheritance.
package model

import "time"

// Role is the permission level stored with each user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a registered forum account.
//
// WHY *time.Time FOR CreatedAt?
// The column has a server-side default, but rows written by other tools can
// leave it NULL. A nil pointer keeps "absent" distinct from the zero time,
// and the display layer renders it as an empty string.
//
// PasswordHash carries the `json:"-"` tag so a User can never leak its
// hash through an accidental json.Marshal.
type User struct {
	ID           int64      `json:"user_id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	CreatedAt    *time.Time `json:"created_at"`
}
