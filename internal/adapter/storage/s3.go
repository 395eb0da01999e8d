package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3manager "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/custodio-dev/custodio/internal/domain"
)

// S3Store uploads artifacts to an S3 bucket. The remote folder id maps to
// a key prefix; the returned remote id is the object key.
type S3Store struct {
	uploader *s3manager.Uploader
	bucket   string
}

func NewS3(ctx context.Context, region, bucket, accessKey, secretKey string) (*S3Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)

	return &S3Store{
		uploader: s3manager.NewUploader(client),
		bucket:   bucket,
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, localPath string, folderID string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	defer file.Close()

	key := filepath.Base(localPath)
	if folderID != "" {
		key = path.Join(folderID, key)
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   file,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}

	return key, nil
}
