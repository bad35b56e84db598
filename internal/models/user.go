// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	// DefaultAvatarURL is assigned to users created without an avatar.
	DefaultAvatarURL = "https://placehold.co/100x100.png"
	// DefaultBio is assigned to users created through sign-up or lazy resolution.
	DefaultBio = "This is a new PenLoft author!"
)

// User represents an author in PenLoft.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Fuid     string `gorm:"uniqueIndex;not null" json:"fuid"`
	Name     string `gorm:"not null" json:"name"`
	Username string `gorm:"not null" json:"username"`
	// UsernameKey is the lower-cased username, unique so that names
	// differing only by case collide.
	UsernameKey string    `gorm:"uniqueIndex;not null" json:"-"`
	Email       string    `gorm:"index" json:"-"`
	Password    string    `json:"-"`
	AvatarURL   string    `json:"avatar_url"`
	Bio         string    `json:"bio"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UsernameKey normalizes a username for case-insensitive comparison.
func UsernameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// BeforeSave keeps UsernameKey in sync with Username.
func (u *User) BeforeSave(_ *gorm.DB) error {
	u.UsernameKey = UsernameKey(u.Username)
	return nil
}
