package models

import (
	"time"

	"github.com/quillpress/quillpress/pkg/domain"
)

// User is the stored account document.
type User struct {
	ID           string         `bson:"_id,omitempty" json:"_id"`
	Email        string         `bson:"email" json:"email"`
	FirstName    string         `bson:"firstName" json:"firstName"`
	LastName     string         `bson:"lastName" json:"lastName"`
	Password     string         `bson:"password" json:"-"`
	Role         domain.Role    `bson:"role" json:"role"`
	IsVerified   bool           `bson:"isVerified" json:"isVerified"`
	IsWriter     bool           `bson:"isWriter" json:"isWriter"`
	IsSubscribed bool           `bson:"isSubscribed,omitempty" json:"isSubscribed,omitempty"`
	SubscribedAt *time.Time     `bson:"subscribedAt,omitempty" json:"subscribedAt,omitempty"`
	Profile      domain.Profile `bson:"profile" json:"profile"`
	CreatedAt    time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// Public strips secret fields.
func (u *User) Public() *domain.User {
	if u == nil {
		return nil
	}
	return &domain.User{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         u.Role,
		IsVerified:   u.IsVerified,
		IsWriter:     u.IsWriter,
		IsSubscribed: u.IsSubscribed,
		SubscribedAt: u.SubscribedAt,
		Profile:      u.Profile,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
