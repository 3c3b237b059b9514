package adapters

import (
	"bytes"
	"context"
	"fmt"
	"generate-love-video/application/ports/outbound"
	"generate-love-video/config"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type s3MediaStore struct {
	s3Svc    *s3.S3
	s3Config *config.S3Config
}

func NewS3MediaStore(s3Svc *s3.S3, s3Config *config.S3Config) outbound.MediaStorePort {
	return &s3MediaStore{
		s3Svc:    s3Svc,
		s3Config: s3Config,
	}
}

func (s *s3MediaStore) Upload(ctx context.Context, data []byte, contentType string, folder string) (string, error) {
	key := fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), extensionFor(contentType))

	putInput := &s3.PutObjectInput{
		Bucket:        aws.String(s.s3Config.BucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	}

	_, err := s.s3Svc.PutObjectWithContext(ctx, putInput)
	if err != nil {
		log.Error().
			Err(err).
			Str("bucket", s.s3Config.BucketName).
			Str("key", key).
			Msg("Failed to upload object to S3")
		return "", err
	}

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.s3Config.BucketName, s.s3Config.Region, key)
	log.Debug().
		Str("url", url).
		Msg("Successfully uploaded object to S3")

	return url, nil
}

func (s *s3MediaStore) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := s.s3Svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.s3Config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("bucket", s.s3Config.BucketName).
			Str("key", key).
			Msg("Failed to download object from S3")
		return nil, err
	}

	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close S3 object body")
		}
	}(out.Body)

	return io.ReadAll(out.Body)
}

// ExtractKey re-derives the storage key from one of our own URLs so chained
// steps can re-read an artifact without a public round trip. Returns "" for
// URLs this store never issued.
func (s *s3MediaStore) ExtractKey(url string) string {
	prefix := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", s.s3Config.BucketName, s.s3Config.Region)
	if strings.HasPrefix(url, prefix) {
		return strings.TrimPrefix(url, prefix)
	}
	return ""
}

func extensionFor(contentType string) string {
	switch contentType {
	case "video/mp4":
		return ".mp4"
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "audio/mpeg":
		return ".mp3"
	default:
		return ""
	}
}
