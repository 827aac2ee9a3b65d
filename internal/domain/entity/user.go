package entity

import (
	"time"
)

// Roles a user can hold. Admin unlocks catalog management.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the aggregate root for the account domain.
// Password holds a bcrypt hash, never plaintext.
// ResetToken/ResetTokenExpiry are either both set or both nil; a pending
// password reset is exactly the state where both are present.
type User struct {
	ID               string
	Name             string
	Email            string
	Password         string
	Role             string
	ResetToken       *string
	ResetTokenExpiry *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ResetPending reports whether the user has an unconsumed reset token.
func (u *User) ResetPending() bool {
	return u.ResetToken != nil && u.ResetTokenExpiry != nil
}

// LibraryEntry is a user's relationship to one catalog book: a denormalized
// copy of the book's metadata plus the user's reading status. It has no
// identity outside its owning user; at most one entry exists per
// (user, book) pair.
type LibraryEntry struct {
	BookID      string `json:"bookId"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Genre       string `json:"genre,omitempty"`
	Description string `json:"description,omitempty"`
	Link        string `json:"link,omitempty"`
	Status      string `json:"status"`
}
