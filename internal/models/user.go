// Package models contains data structures for the forum's domain models.
package models

import "time"

// User is a registered forum member. Password holds the bcrypt digest and is
// never serialized.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"uniqueIndex:idx_users_username;not null" json:"username"`
	Mail        string    `gorm:"uniqueIndex:idx_users_mail;not null" json:"mail"`
	Fullname    string    `gorm:"not null" json:"fullname"`
	DateOfBirth time.Time `json:"dateOfBirth"`
	Password    string    `gorm:"not null" json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PublicUser is the projection returned to other users.
type PublicUser struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Fullname    string    `json:"fullname"`
	DateOfBirth time.Time `json:"dateOfBirth"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Public returns the projection of u visible to anyone.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Username:    u.Username,
		Fullname:    u.Fullname,
		DateOfBirth: u.DateOfBirth,
		CreatedAt:   u.CreatedAt,
	}
}
