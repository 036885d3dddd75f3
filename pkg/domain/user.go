// Package domain holds the records shared by the API server and its clients.
package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Profile is the nested, user-editable part of an account.
type Profile struct {
	Bio       string `json:"bio,omitempty" bson:"bio,omitempty"`
	Phone     string `json:"phone,omitempty" bson:"phone,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty" bson:"avatarUrl,omitempty"`
	Location  string `json:"location,omitempty" bson:"location,omitempty"`
	Website   string `json:"website,omitempty" bson:"website,omitempty"`
	Twitter   string `json:"twitter,omitempty" bson:"twitter,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty" bson:"linkedin,omitempty"`
}

// User is the public account record. Clients cache it as their session and
// attach the access token they were issued.
type User struct {
	ID           string     `json:"_id"`
	Email        string     `json:"email"`
	FirstName    string     `json:"firstName,omitempty"`
	LastName     string     `json:"lastName,omitempty"`
	Role         Role       `json:"role"`
	IsVerified   bool       `json:"isVerified"`
	IsWriter     bool       `json:"isWriter"`
	IsSubscribed bool       `json:"isSubscribed,omitempty"`
	SubscribedAt *time.Time `json:"subscribedAt,omitempty"`
	Profile      Profile    `json:"profile"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	Token        string     `json:"token,omitempty"`
}

// Valid reports whether u is a complete record. Anything else is treated as
// no session at all.
func (u *User) Valid() bool {
	if u == nil {
		return false
	}
	return strings.TrimSpace(u.ID) != "" && strings.TrimSpace(u.Email) != "" && u.Role.Valid()
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// FullName joins first and last name, falling back to the email.
func (u *User) FullName() string {
	n := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if n == "" {
		return u.Email
	}
	return n
}
