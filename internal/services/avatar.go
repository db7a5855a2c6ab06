package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/deepthoughts/thoughts-server/internal/auth"
	"github.com/deepthoughts/thoughts-server/internal/repository"
)

// AvatarUploadExpiry is how long a presigned upload URL stays valid
const AvatarUploadExpiry = 5 * time.Minute

var avatarExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// Presigner signs object uploads
type Presigner interface {
	PresignPut(ctx context.Context, bucket, key, contentType string, expires time.Duration) (string, error)
}

// S3Config holds the settings for the avatar bucket
type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

type s3Presigner struct {
	client *s3.PresignClient
}

// NewS3Presigner builds a presigner from the default AWS credential chain, or
// from static keys when they are set. A custom endpoint selects path-style
// addressing for S3-compatible stores.
func NewS3Presigner(ctx context.Context, cfg S3Config) (Presigner, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &s3Presigner{client: s3.NewPresignClient(client)}, nil
}

func (p *s3Presigner) PresignPut(ctx context.Context, bucket, key, contentType string, expires time.Duration) (string, error) {
	request, err := p.client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", err
	}
	return request.URL, nil
}

// AvatarUpload is returned to a client that wants to upload an avatar
type AvatarUpload struct {
	UploadURL string
	AvatarURL string
	ExpiresIn int
}

// AvatarService hands out upload URLs for profile pictures
type AvatarService struct {
	userRepo  repository.UserRepository
	presigner Presigner
	bucket    string
	baseURL   string
}

// NewAvatarService creates a new avatar service. A nil presigner disables uploads.
func NewAvatarService(userRepo repository.UserRepository, presigner Presigner, cfg S3Config) *AvatarService {
	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" && cfg.Bucket != "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &AvatarService{
		userRepo:  userRepo,
		presigner: presigner,
		bucket:    cfg.Bucket,
		baseURL:   baseURL,
	}
}

// Enabled reports whether object storage is configured
func (s *AvatarService) Enabled() bool {
	return s != nil && s.presigner != nil && s.bucket != ""
}

// RequestUpload presigns an upload for the caller and records the resulting
// public URL as the caller's avatar. The URL is stored when the upload is
// issued, not when it completes: a client that never uploads keeps an
// avatarUrl pointing at a missing object until it requests a new one.
func (s *AvatarService) RequestUpload(ctx context.Context, id auth.Identity, contentType string) (*AvatarUpload, error) {
	if !id.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	if !s.Enabled() {
		return nil, ErrAvatarsDisabled
	}
	ext, ok := avatarExtensions[strings.ToLower(contentType)]
	if !ok {
		return nil, invalid("contentType", "must be one of image/jpeg, image/png, image/webp or image/gif")
	}

	key := fmt.Sprintf("avatars/%s/%s.%s", id.UserID(), uuid.New().String(), ext)
	uploadURL, err := s.presigner.PresignPut(ctx, s.bucket, key, strings.ToLower(contentType), AvatarUploadExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	avatarURL := s.baseURL + "/" + key
	if _, err := s.userRepo.SetAvatarURL(ctx, id.UserID(), avatarURL); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}

	log.Info().Str("user_id", id.UserID()).Str("key", key).Msg("Avatar upload issued")
	return &AvatarUpload{
		UploadURL: uploadURL,
		AvatarURL: avatarURL,
		ExpiresIn: int(AvatarUploadExpiry.Seconds()),
	}, nil
}
