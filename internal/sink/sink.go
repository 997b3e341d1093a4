// Package sink mirrors compressed outputs to remote storage. A sink is
// opened from a URL:
//
//	s3://bucket/prefix
//	gs://bucket/prefix
//	sftp://user@host:port/dir
//
// Credentials come from [Credentials], normally filled from the
// environment by [CredentialsFromEnv].
package sink

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ErrUnsupportedScheme is returned for URLs other than s3, gs and sftp.
var ErrUnsupportedScheme = errors.New("unsupported upload scheme")

// Sink uploads local files under a key relative to its root.
type Sink interface {
	Upload(ctx context.Context, localPath, key string) error
	Close() error
	String() string
}

// Target is a parsed upload URL.
type Target struct {
	Scheme string
	Bucket string // Bucket for s3/gs, host for sftp.
	Port   string // sftp only; default 22.
	User   string // sftp only.
	Prefix string // Key prefix or remote directory, without leading slash for buckets.
}

// ParseURL splits raw into a Target.
func ParseURL(raw string) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("parse upload url: %w", err)
	}
	t := Target{Scheme: strings.ToLower(u.Scheme), Bucket: u.Hostname(), Port: u.Port()}
	switch t.Scheme {
	case "s3", "gs":
		t.Prefix = strings.Trim(u.Path, "/")
	case "sftp":
		if u.User == nil || u.User.Username() == "" {
			return Target{}, fmt.Errorf("sftp url %q needs a user", raw)
		}
		t.User = u.User.Username()
		if t.Port == "" {
			t.Port = "22"
		}
		t.Prefix = u.Path
		if t.Prefix == "" {
			t.Prefix = "."
		}
	default:
		return Target{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if t.Bucket == "" {
		return Target{}, fmt.Errorf("upload url %q has no bucket or host", raw)
	}
	return t, nil
}

// String renders t back as a URL without credentials.
func (t Target) String() string {
	switch t.Scheme {
	case "sftp":
		return fmt.Sprintf("sftp://%s@%s:%s%s", t.User, t.Bucket, t.Port, t.Prefix)
	default:
		return fmt.Sprintf("%s://%s/%s", t.Scheme, t.Bucket, t.Prefix)
	}
}

// ObjectKey joins the target prefix and key with forward slashes.
func (t Target) ObjectKey(key string) string {
	key = strings.TrimLeft(key, "/")
	if t.Prefix == "" {
		return key
	}
	return path.Join(t.Prefix, key)
}

// Open connects to the storage named by raw.
func Open(ctx context.Context, raw string, creds Credentials) (Sink, error) {
	t, err := ParseURL(raw)
	if err != nil {
		return nil, err
	}
	switch t.Scheme {
	case "s3":
		return openS3(t, creds)
	case "gs":
		return openGCS(ctx, t, creds)
	case "sftp":
		return openSFTP(ctx, t, creds)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, t.Scheme)
}
