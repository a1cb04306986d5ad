package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dhaval110/social-media-backend/internal/models"
)

const uniqueViolation = "23505"

// PostgresConfig tunes the connection pool backing the repository.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	ConnectTimeout time.Duration
}

// PostgresRepository is the production Repository backed by a pgx pool.
// Migrations must have been applied before the constructor is called.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository opens a connection pool against the configured DSN.
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("postgres dsn required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	return &PostgresRepository{pool: pool}, nil
}

// Close drains the connection pool, respecting the context deadline.
func (r *PostgresRepository) Close(ctx context.Context) error {
	if r == nil || r.pool == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		r.pool.Close()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

const userColumns = `id, email, name, password_hash, profile_pic, mobile_number,
	location, status, dob, reset_token, reset_token_expiry, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.ProfilePic,
		&user.MobileNumber,
		&user.Location,
		&user.Status,
		&user.DOB,
		&user.ResetToken,
		&user.ResetTokenExpiry,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *PostgresRepository) CreateUser(ctx context.Context, params CreateUserParams) (models.User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash, profile_pic)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		normalizeEmail(params.Email), params.Name, params.PasswordHash, params.ProfilePic)

	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetUser(ctx context.Context, id string) (models.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, normalizeEmail(email))
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetUserDetail(ctx context.Context, id string) (UserDetail, error) {
	user, err := r.GetUser(ctx, id)
	if err != nil {
		return UserDetail{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, title, description, video_url, thumbnail, created_at, updated_at
		FROM videos
		WHERE user_id = $1
		ORDER BY created_at DESC`, id)
	if err != nil {
		return UserDetail{}, fmt.Errorf("list user videos: %w", err)
	}
	defer rows.Close()

	detail := UserDetail{User: user, Videos: []models.Video{}}
	for rows.Next() {
		var video models.Video
		if err := rows.Scan(&video.ID, &video.UserID, &video.Title, &video.Description,
			&video.VideoURL, &video.Thumbnail, &video.CreatedAt, &video.UpdatedAt); err != nil {
			return UserDetail{}, fmt.Errorf("scan user video: %w", err)
		}
		detail.Videos = append(detail.Videos, video)
	}
	if err := rows.Err(); err != nil {
		return UserDetail{}, fmt.Errorf("list user videos: %w", err)
	}
	return detail, nil
}

func (r *PostgresRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *PostgresRepository) UpdateUser(ctx context.Context, id string, update UserUpdate) (models.User, error) {
	if update.Email != nil {
		email := normalizeEmail(*update.Email)
		update.Email = &email
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			mobile_number = COALESCE($4, mobile_number),
			location = COALESCE($5, location),
			status = COALESCE($6, status),
			dob = COALESCE($7, dob),
			updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		id, update.Name, update.Email, update.MobileNumber, update.Location, update.Status, update.DOB)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		if isUniqueViolation(err) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) SetProfilePicture(ctx context.Context, id, url string) (models.User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET profile_pic = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, id, url)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("set profile picture: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) DeleteUser(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) BeginPasswordReset(ctx context.Context, email, token string, expiry time.Time) (models.User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET reset_token = $2, reset_token_expiry = $3, updated_at = now()
		WHERE email = $1
		RETURNING `+userColumns,
		normalizeEmail(email), token, expiry.UTC())

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("begin password reset: %w", err)
	}
	return user, nil
}

// CompletePasswordReset redeems a reset token in a single guarded UPDATE:
// the new hash is stored and the token cleared only when the token still
// matches and has not expired. Concurrent redemptions of the same token
// cannot both succeed.
func (r *PostgresRepository) CompletePasswordReset(ctx context.Context, token, passwordHash string) (models.User, error) {
	if token == "" {
		return models.User{}, ErrResetTokenInvalid
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET
			password_hash = $2,
			reset_token = NULL,
			reset_token_expiry = NULL,
			updated_at = now()
		WHERE reset_token = $1 AND reset_token_expiry >= now()
		RETURNING `+userColumns,
		token, passwordHash)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrResetTokenInvalid
		}
		return models.User{}, fmt.Errorf("complete password reset: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) CreateVideo(ctx context.Context, params CreateVideoParams) (models.Video, error) {
	var video models.Video
	err := r.pool.QueryRow(ctx, `
		INSERT INTO videos (user_id, title, description, video_url, thumbnail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, title, description, video_url, thumbnail, created_at, updated_at`,
		params.UserID, params.Title, params.Description, params.VideoURL, params.Thumbnail).
		Scan(&video.ID, &video.UserID, &video.Title, &video.Description,
			&video.VideoURL, &video.Thumbnail, &video.CreatedAt, &video.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("create video: %w", err)
	}
	return video, nil
}

const videoDetailQuery = `
	SELECT v.id, v.user_id, v.title, v.description, v.video_url, v.thumbnail,
		v.created_at, v.updated_at,
		u.name, u.profile_pic,
		(SELECT count(*) FROM likes l WHERE l.video_id = v.id) AS like_count,
		(SELECT count(*) FROM comments c WHERE c.video_id = v.id) AS comment_count
	FROM videos v
	JOIN users u ON u.id = v.user_id`

func scanVideoDetail(row rowScanner) (VideoDetail, error) {
	var detail VideoDetail
	err := row.Scan(
		&detail.ID,
		&detail.UserID,
		&detail.Title,
		&detail.Description,
		&detail.VideoURL,
		&detail.Thumbnail,
		&detail.CreatedAt,
		&detail.UpdatedAt,
		&detail.Author.Name,
		&detail.Author.ProfilePic,
		&detail.LikeCount,
		&detail.CommentCount,
	)
	detail.Author.ID = detail.UserID
	return detail, err
}

func (r *PostgresRepository) GetVideo(ctx context.Context, id string) (VideoDetail, error) {
	row := r.pool.QueryRow(ctx, videoDetailQuery+` WHERE v.id = $1`, id)
	detail, err := scanVideoDetail(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return VideoDetail{}, ErrNotFound
		}
		return VideoDetail{}, fmt.Errorf("get video: %w", err)
	}
	comments, err := r.queryComments(ctx, id)
	if err != nil {
		return VideoDetail{}, err
	}
	detail.Comments = comments
	return detail, nil
}

func (r *PostgresRepository) ListVideos(ctx context.Context) ([]VideoDetail, error) {
	rows, err := r.pool.Query(ctx, videoDetailQuery+` ORDER BY v.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	details := []VideoDetail{}
	for rows.Next() {
		detail, err := scanVideoDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return details, nil
}

func (r *PostgresRepository) DeleteVideo(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ToggleLike(ctx context.Context, videoID, userID string) (bool, int, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1)`, videoID).Scan(&exists); err != nil {
		return false, 0, fmt.Errorf("check video: %w", err)
	}
	if !exists {
		return false, 0, ErrNotFound
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM likes WHERE video_id = $1 AND user_id = $2`, videoID, userID)
	if err != nil {
		return false, 0, fmt.Errorf("toggle like: %w", err)
	}
	liked := tag.RowsAffected() == 0
	if liked {
		_, err = r.pool.Exec(ctx, `
			INSERT INTO likes (video_id, user_id) VALUES ($1, $2)
			ON CONFLICT (video_id, user_id) DO NOTHING`, videoID, userID)
		if err != nil {
			return false, 0, fmt.Errorf("toggle like: %w", err)
		}
	}

	var count int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM likes WHERE video_id = $1`, videoID).Scan(&count); err != nil {
		return false, 0, fmt.Errorf("count likes: %w", err)
	}
	return liked, count, nil
}

func (r *PostgresRepository) CreateComment(ctx context.Context, videoID, userID, text string) (CommentDetail, error) {
	var detail CommentDetail
	err := r.pool.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO comments (video_id, user_id, body)
			VALUES ($1, $2, $3)
			RETURNING id, video_id, user_id, body, created_at
		)
		SELECT i.id, i.video_id, i.user_id, i.body, i.created_at, u.name, u.profile_pic
		FROM inserted i
		JOIN users u ON u.id = i.user_id`,
		videoID, userID, text).
		Scan(&detail.ID, &detail.VideoID, &detail.UserID, &detail.Text, &detail.CreatedAt,
			&detail.Author.Name, &detail.Author.ProfilePic)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return CommentDetail{}, ErrNotFound
		}
		return CommentDetail{}, fmt.Errorf("create comment: %w", err)
	}
	detail.Author.ID = detail.UserID
	return detail, nil
}

func (r *PostgresRepository) ListComments(ctx context.Context, videoID string) ([]CommentDetail, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1)`, videoID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check video: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return r.queryComments(ctx, videoID)
}

func (r *PostgresRepository) queryComments(ctx context.Context, videoID string) ([]CommentDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.video_id, c.user_id, c.body, c.created_at, u.name, u.profile_pic
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.video_id = $1
		ORDER BY c.created_at`, videoID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []CommentDetail{}
	for rows.Next() {
		var detail CommentDetail
		if err := rows.Scan(&detail.ID, &detail.VideoID, &detail.UserID, &detail.Text,
			&detail.CreatedAt, &detail.Author.Name, &detail.Author.ProfilePic); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		detail.Author.ID = detail.UserID
		comments = append(comments, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}
