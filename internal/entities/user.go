package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an identity record. The password hash is never serialized.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"_id"`
	Username     string    `gorm:"uniqueIndex;size:30;not null" json:"username"`
	PasswordHash string    `gorm:"size:100;not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BeforeCreate assigns an opaque id when the caller did not set one.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// PublicUser is the subset of a user exposed to API clients.
type PublicUser struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username}
}
