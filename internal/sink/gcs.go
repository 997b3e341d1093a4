package sink

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type gcsSink struct {
	target Target
	client *storage.Client
}

func openGCS(ctx context.Context, t Target, c Credentials) (*gcsSink, error) {
	var opts []option.ClientOption
	switch {
	case c.GCSCredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(c.GCSCredentialsFile))
	case c.GCSEndpoint != "":
		opts = append(opts, option.WithoutAuthentication())
	}
	if c.GCSEndpoint != "" {
		opts = append(opts, option.WithEndpoint(c.GCSEndpoint))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return &gcsSink{target: t, client: client}, nil
}

func (s *gcsSink) Upload(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	objectKey := s.target.ObjectKey(key)
	wc := s.client.Bucket(s.target.Bucket).Object(objectKey).NewWriter(ctx)
	wc.ContentType = "application/pdf"
	if _, err := io.Copy(wc, f); err != nil {
		wc.Close()
		return fmt.Errorf("upload %s to gs://%s: %w", objectKey, s.target.Bucket, err)
	}
	// Close completes the upload.
	if err := wc.Close(); err != nil {
		return fmt.Errorf("upload %s to gs://%s: %w", objectKey, s.target.Bucket, err)
	}
	return nil
}

func (s *gcsSink) Close() error   { return s.client.Close() }
func (s *gcsSink) String() string { return s.target.String() }
