package archive

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/sirupsen/logrus"
)

type uploader interface {
	UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// S3 uploads files to a bucket and removes the local copy once stored.
type S3 struct {
	uploader uploader
	bucket   string
	prefix   string
	log      logrus.FieldLogger
}

// NewS3 creates an S3 archiver using the default credential chain.
func NewS3(region, bucket, prefix string, log logrus.FieldLogger) (*S3, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return &S3{
		uploader: s3manager.NewUploader(sess),
		bucket:   bucket,
		prefix:   prefix,
		log:      log,
	}, nil
}

// Archive uploads each file under prefix/<base name>. A file is removed locally
// only after its upload succeeds.
func (s *S3) Archive(ctx context.Context, files []string) (Result, error) {
	var result Result
	for _, src := range files {
		key := path.Join(s.prefix, filepath.Base(src))
		if err := s.upload(ctx, src, key); err != nil {
			return result, fmt.Errorf("archive %s: %w", src, err)
		}
		if err := os.Remove(src); err != nil {
			return result, fmt.Errorf("remove %s after upload: %w", src, err)
		}
		dst := "s3://" + s.bucket + "/" + key
		s.log.WithFields(logrus.Fields{"from": src, "to": dst}).Info("archived file")
		result.Destinations = append(result.Destinations, dst)
	}
	return result, nil
}

func (s *S3) upload(ctx context.Context, src, key string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	return err
}
