package ingestion

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/common"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// S3Source fetches objects from S3-compatible storage. References are
// either "s3://bucket/key" or a bare object key resolved against the
// configured default bucket.
type S3Source struct {
	client        *minio.Client
	defaultBucket string
}

func NewS3Source(cfg common.S3Config) (*S3Source, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, common.WrapAppError(common.CodeFileSource, "cannot create s3 client", err)
	}
	return &S3Source{client: client, defaultBucket: cfg.Bucket}, nil
}

func (s *S3Source) Type() string { return constants.SourceS3 }

func (s *S3Source) Fetch(ctx context.Context, reference, destDir string) (*entity.FileReference, error) {
	bucket, key, err := s.resolve(reference)
	if err != nil {
		return nil, err
	}

	stat, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, common.NewFileSource(constants.SourceS3, reference, err.Error())
	}

	filename := path.Base(key)
	staged := filepath.Join(destDir, fmt.Sprintf("idp-%s-%s", uuid.NewString(), filename))
	if err := s.client.FGetObject(ctx, bucket, key, staged, minio.GetObjectOptions{}); err != nil {
		return nil, common.NewFileSource(constants.SourceS3, reference, err.Error())
	}

	mime := stat.ContentType
	if mime == "" || mime == "application/octet-stream" {
		mime = constants.MIMETypeForPath(filename)
	}

	return &entity.FileReference{
		SourceType:      constants.SourceS3,
		SourceReference: reference,
		Filename:        filename,
		MIMEType:        mime,
		FileSizeBytes:   stat.Size,
		ContentPath:     staged,
	}, nil
}

func (s *S3Source) resolve(reference string) (bucket, key string, err error) {
	if after, ok := strings.CutPrefix(reference, "s3://"); ok {
		bucket, key, ok = strings.Cut(after, "/")
		if !ok || bucket == "" || key == "" {
			return "", "", common.NewFileSource(constants.SourceS3, reference,
				"expected s3://bucket/key")
		}
		return bucket, key, nil
	}
	if s.defaultBucket == "" {
		return "", "", common.NewFileSource(constants.SourceS3, reference,
			"no default bucket configured and reference is not s3://bucket/key")
	}
	return s.defaultBucket, reference, nil
}
