package sink

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Uploader is the part of manager.Uploader the sink uses.
type s3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type s3Sink struct {
	target   Target
	uploader s3Uploader
}

func openS3(t Target, c Credentials) (*s3Sink, error) {
	if c.S3Region == "" {
		return nil, errors.New("s3 upload needs a region (PDFCOMPRESS_S3_REGION or AWS_REGION)")
	}
	opts := s3.Options{Region: c.S3Region}
	if c.S3AccessKey != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(c.S3AccessKey, c.S3SecretKey, "")
	} else {
		opts.Credentials = aws.AnonymousCredentials{}
	}
	if c.S3Endpoint != "" {
		opts.BaseEndpoint = aws.String(c.S3Endpoint)
		opts.UsePathStyle = true
	}
	client := s3.New(opts)
	return &s3Sink{target: t, uploader: manager.NewUploader(client)}, nil
}

func (s *s3Sink) Upload(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	objectKey := s.target.ObjectKey(key)
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.target.Bucket),
		Key:         aws.String(objectKey),
		Body:        f,
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return fmt.Errorf("upload %s to s3://%s: %w", objectKey, s.target.Bucket, err)
	}
	return nil
}

func (s *s3Sink) Close() error   { return nil }
func (s *s3Sink) String() string { return s.target.String() }
