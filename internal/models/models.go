// Package models defines the persistent domain records shared between the
// storage layer and the API handlers.
package models

import "time"

// User is an identity record. PasswordHash is empty for accounts created
// through a federated login; ResetToken and ResetTokenExpiry are set only
// while a password reset window is open and are always cleared together.
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name,omitempty"`
	PasswordHash     string     `json:"-"`
	ProfilePic       string     `json:"profilePic,omitempty"`
	MobileNumber     string     `json:"mobileNumber,omitempty"`
	Location         string     `json:"location,omitempty"`
	Status           string     `json:"status,omitempty"`
	DOB              *time.Time `json:"dob,omitempty"`
	ResetToken       *string    `json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// HasPassword reports whether the account supports password login.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}

type Video struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	VideoURL    string    `json:"videoUrl"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Like records one user's like of one video. The storage layer enforces
// uniqueness on the (UserID, VideoID) pair.
type Like struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}
