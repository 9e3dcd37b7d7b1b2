// Package models contains data structures for the application's domain models.
package models

import "time"

// User is a registered account. Authors, commenters and followers are all users.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:254" json:"-"`
	Password  string    `gorm:"not null" json:"-"`
	FirstName string    `gorm:"size:150" json:"first_name,omitempty"`
	LastName  string    `gorm:"size:150" json:"last_name,omitempty"`
	IsAdmin   bool      `gorm:"default:false" json:"-"`
	CreatedAt time.Time `json:"date_joined"`
	UpdatedAt time.Time `json:"-"`
}

func (u User) String() string {
	return u.Username
}

// FullName is the profile display name, falling back to the username.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}
