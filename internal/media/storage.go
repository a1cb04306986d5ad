// Package media stores uploaded video files and thumbnails in S3-compatible
// object storage and derives the public URLs handed back to clients.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Config describes the object storage target.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Storage uploads media objects and resolves their public URLs.
type Storage struct {
	client    putObjectAPI
	bucket    string
	publicURL string
}

// NewStorage builds an S3 client for the configured endpoint. MinIO and other
// S3-compatible stores are supported through the endpoint override.
func NewStorage(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("media bucket is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load object storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = cfg.Endpoint
	}
	return &Storage{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Put streams one object into the bucket and returns its public URL.
func (s *Storage) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if key == "" {
		return "", errors.New("object key is required")
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// PublicURL resolves the externally reachable URL for a stored object.
func (s *Storage) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, key)
}

// VideoKey builds a collision-free object key for an uploaded video. Keys
// are partitioned by owner so per-user cleanup stays a prefix operation.
func VideoKey(userID, filename string) string {
	return objectKey("videos", userID, filename)
}

// ThumbnailKey builds the object key for a video's thumbnail image.
func ThumbnailKey(userID, filename string) string {
	return objectKey("thumbnails", userID, filename)
}

// ProfilePictureKey builds the object key for a user's profile picture.
func ProfilePictureKey(userID, filename string) string {
	return objectKey("profiles", userID, filename)
}

func objectKey(prefix, userID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	stamp := time.Now().UTC().Format("20060102T150405")
	return fmt.Sprintf("%s/%s/%s-%s%s", prefix, userID, stamp, uuid.NewString(), ext)
}
