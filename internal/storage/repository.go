// Package storage persists accounts, videos, likes and comments. Two
// implementations exist: an in-memory store for tests and local development,
// and a Postgres store for production.
package storage

import (
	"context"
	"time"

	"github.com/dhaval110/social-media-backend/internal/models"
)

// CreateUserParams carries everything needed to register an account.
// PasswordHash is empty for accounts created through federated login.
type CreateUserParams struct {
	Email        string
	Name         string
	PasswordHash string
	ProfilePic   string
}

// UserUpdate holds optional profile fields; nil pointers leave the stored
// value untouched.
type UserUpdate struct {
	Name         *string
	Email        *string
	MobileNumber *string
	Location     *string
	Status       *string
	DOB          *time.Time
}

// CreateVideoParams carries a new video row. URLs point at already-uploaded
// objects in media storage.
type CreateVideoParams struct {
	UserID      string
	Title       string
	Description string
	VideoURL    string
	Thumbnail   string
}

// AuthorSummary is the slice of account data embedded in feed responses.
type AuthorSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	ProfilePic string `json:"profilePic,omitempty"`
}

// CommentDetail is a comment joined with its author.
type CommentDetail struct {
	models.Comment
	Author AuthorSummary `json:"user"`
}

// VideoDetail is a video joined with its author and engagement counts.
// Comments are populated only when a single video is fetched.
type VideoDetail struct {
	models.Video
	Author       AuthorSummary   `json:"user"`
	LikeCount    int             `json:"likeCount"`
	CommentCount int             `json:"commentCount"`
	Comments     []CommentDetail `json:"comments,omitempty"`
}

// UserDetail is an account joined with the videos it has published.
type UserDetail struct {
	models.User
	Videos []models.Video `json:"videos"`
}

// Repository exposes the datastore operations required by the API handlers.
type Repository interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserDetail(ctx context.Context, id string) (UserDetail, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, update UserUpdate) (models.User, error)
	SetProfilePicture(ctx context.Context, id, url string) (models.User, error)
	DeleteUser(ctx context.Context, id string) error

	BeginPasswordReset(ctx context.Context, email, token string, expiry time.Time) (models.User, error)
	CompletePasswordReset(ctx context.Context, token, passwordHash string) (models.User, error)

	CreateVideo(ctx context.Context, params CreateVideoParams) (models.Video, error)
	GetVideo(ctx context.Context, id string) (VideoDetail, error)
	ListVideos(ctx context.Context) ([]VideoDetail, error)
	DeleteVideo(ctx context.Context, id string) error

	ToggleLike(ctx context.Context, videoID, userID string) (liked bool, likeCount int, err error)
	CreateComment(ctx context.Context, videoID, userID, text string) (CommentDetail, error)
	ListComments(ctx context.Context, videoID string) ([]CommentDetail, error)
}
