package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dhaval110/social-media-backend/internal/models"
)

// MemoryRepository is an in-memory Repository used by tests and local
// development. All methods are safe for concurrent use.
type MemoryRepository struct {
	mu       sync.RWMutex
	users    map[string]models.User
	videos   map[string]models.Video
	comments map[string]models.Comment
	likes    map[string]models.Like
	now      func() time.Time
}

// NewMemoryRepository creates an empty in-memory store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:    make(map[string]models.User),
		videos:   make(map[string]models.Video),
		comments: make(map[string]models.Comment),
		likes:    make(map[string]models.Like),
		now:      time.Now,
	}
}

var _ Repository = (*MemoryRepository)(nil)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (m *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryRepository) CreateUser(ctx context.Context, params CreateUserParams) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := normalizeEmail(params.Email)
	for _, existing := range m.users {
		if existing.Email == email {
			return models.User{}, ErrEmailTaken
		}
	}

	now := m.now().UTC()
	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         params.Name,
		PasswordHash: params.PasswordHash,
		ProfilePic:   params.ProfilePic,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *MemoryRepository) GetUser(ctx context.Context, id string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func (m *MemoryRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	normalized := normalizeEmail(email)
	for _, user := range m.users {
		if user.Email == normalized {
			return user, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (m *MemoryRepository) GetUserDetail(ctx context.Context, id string) (UserDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return UserDetail{}, ErrNotFound
	}
	detail := UserDetail{User: user, Videos: []models.Video{}}
	for _, video := range m.videos {
		if video.UserID == id {
			detail.Videos = append(detail.Videos, video)
		}
	}
	sort.Slice(detail.Videos, func(i, j int) bool {
		return detail.Videos[i].CreatedAt.After(detail.Videos[j].CreatedAt)
	})
	return detail, nil
}

func (m *MemoryRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]models.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (m *MemoryRepository) UpdateUser(ctx context.Context, id string, update UserUpdate) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Email != nil {
		email := normalizeEmail(*update.Email)
		for otherID, other := range m.users {
			if otherID != id && other.Email == email {
				return models.User{}, ErrEmailTaken
			}
		}
		user.Email = email
	}
	if update.MobileNumber != nil {
		user.MobileNumber = *update.MobileNumber
	}
	if update.Location != nil {
		user.Location = *update.Location
	}
	if update.Status != nil {
		user.Status = *update.Status
	}
	if update.DOB != nil {
		dob := *update.DOB
		user.DOB = &dob
	}
	user.UpdatedAt = m.now().UTC()
	m.users[id] = user
	return user, nil
}

func (m *MemoryRepository) SetProfilePicture(ctx context.Context, id, url string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	user.ProfilePic = url
	user.UpdatedAt = m.now().UTC()
	m.users[id] = user
	return user, nil
}

func (m *MemoryRepository) DeleteUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	for videoID, video := range m.videos {
		if video.UserID == id {
			m.deleteVideoLocked(videoID)
		}
	}
	for commentID, comment := range m.comments {
		if comment.UserID == id {
			delete(m.comments, commentID)
		}
	}
	for likeID, like := range m.likes {
		if like.UserID == id {
			delete(m.likes, likeID)
		}
	}
	return nil
}

func (m *MemoryRepository) BeginPasswordReset(ctx context.Context, email, token string, expiry time.Time) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	normalized := normalizeEmail(email)
	for id, user := range m.users {
		if user.Email != normalized {
			continue
		}
		tok := token
		exp := expiry.UTC()
		user.ResetToken = &tok
		user.ResetTokenExpiry = &exp
		user.UpdatedAt = m.now().UTC()
		m.users[id] = user
		return user, nil
	}
	return models.User{}, ErrNotFound
}

// CompletePasswordReset redeems a reset token: the password hash is replaced
// and the token cleared in one step, so a token can never be used twice.
func (m *MemoryRepository) CompletePasswordReset(ctx context.Context, token, passwordHash string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token == "" {
		return models.User{}, ErrResetTokenInvalid
	}
	now := m.now().UTC()
	for id, user := range m.users {
		if user.ResetToken == nil || *user.ResetToken != token {
			continue
		}
		if user.ResetTokenExpiry == nil || user.ResetTokenExpiry.Before(now) {
			return models.User{}, ErrResetTokenInvalid
		}
		user.PasswordHash = passwordHash
		user.ResetToken = nil
		user.ResetTokenExpiry = nil
		user.UpdatedAt = now
		m.users[id] = user
		return user, nil
	}
	return models.User{}, ErrResetTokenInvalid
}

func (m *MemoryRepository) CreateVideo(ctx context.Context, params CreateVideoParams) (models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[params.UserID]; !ok {
		return models.Video{}, ErrNotFound
	}
	now := m.now().UTC()
	video := models.Video{
		ID:          uuid.NewString(),
		UserID:      params.UserID,
		Title:       params.Title,
		Description: params.Description,
		VideoURL:    params.VideoURL,
		Thumbnail:   params.Thumbnail,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.videos[video.ID] = video
	return video, nil
}

func (m *MemoryRepository) GetVideo(ctx context.Context, id string) (VideoDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	video, ok := m.videos[id]
	if !ok {
		return VideoDetail{}, ErrNotFound
	}
	detail := m.videoDetailLocked(video)
	detail.Comments = m.commentsLocked(id)
	return detail, nil
}

func (m *MemoryRepository) ListVideos(ctx context.Context) ([]VideoDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	details := make([]VideoDetail, 0, len(m.videos))
	for _, video := range m.videos {
		details = append(details, m.videoDetailLocked(video))
	}
	sort.Slice(details, func(i, j int) bool {
		return details[i].CreatedAt.After(details[j].CreatedAt)
	})
	return details, nil
}

func (m *MemoryRepository) DeleteVideo(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.videos[id]; !ok {
		return ErrNotFound
	}
	m.deleteVideoLocked(id)
	return nil
}

func (m *MemoryRepository) ToggleLike(ctx context.Context, videoID, userID string) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.videos[videoID]; !ok {
		return false, 0, ErrNotFound
	}
	liked := true
	for likeID, like := range m.likes {
		if like.VideoID == videoID && like.UserID == userID {
			delete(m.likes, likeID)
			liked = false
			break
		}
	}
	if liked {
		like := models.Like{
			ID:        uuid.NewString(),
			VideoID:   videoID,
			UserID:    userID,
			CreatedAt: m.now().UTC(),
		}
		m.likes[like.ID] = like
	}
	return liked, m.likeCountLocked(videoID), nil
}

func (m *MemoryRepository) CreateComment(ctx context.Context, videoID, userID, text string) (CommentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.videos[videoID]; !ok {
		return CommentDetail{}, ErrNotFound
	}
	author, ok := m.users[userID]
	if !ok {
		return CommentDetail{}, ErrNotFound
	}
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		UserID:    userID,
		Text:      text,
		CreatedAt: m.now().UTC(),
	}
	m.comments[comment.ID] = comment
	return CommentDetail{Comment: comment, Author: authorSummary(author)}, nil
}

func (m *MemoryRepository) ListComments(ctx context.Context, videoID string) ([]CommentDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.videos[videoID]; !ok {
		return nil, ErrNotFound
	}
	return m.commentsLocked(videoID), nil
}

func (m *MemoryRepository) videoDetailLocked(video models.Video) VideoDetail {
	detail := VideoDetail{Video: video, LikeCount: m.likeCountLocked(video.ID)}
	if author, ok := m.users[video.UserID]; ok {
		detail.Author = authorSummary(author)
	}
	for _, comment := range m.comments {
		if comment.VideoID == video.ID {
			detail.CommentCount++
		}
	}
	return detail
}

func (m *MemoryRepository) commentsLocked(videoID string) []CommentDetail {
	comments := make([]CommentDetail, 0)
	for _, comment := range m.comments {
		if comment.VideoID != videoID {
			continue
		}
		detail := CommentDetail{Comment: comment}
		if author, ok := m.users[comment.UserID]; ok {
			detail.Author = authorSummary(author)
		}
		comments = append(comments, detail)
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments
}

func (m *MemoryRepository) likeCountLocked(videoID string) int {
	count := 0
	for _, like := range m.likes {
		if like.VideoID == videoID {
			count++
		}
	}
	return count
}

func (m *MemoryRepository) deleteVideoLocked(videoID string) {
	delete(m.videos, videoID)
	for commentID, comment := range m.comments {
		if comment.VideoID == videoID {
			delete(m.comments, commentID)
		}
	}
	for likeID, like := range m.likes {
		if like.VideoID == videoID {
			delete(m.likes, likeID)
		}
	}
}

func authorSummary(user models.User) AuthorSummary {
	return AuthorSummary{ID: user.ID, Name: user.Name, ProfilePic: user.ProfilePic}
}
