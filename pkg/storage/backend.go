package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("blob not found")

// BlobStore defines the interface for abstract storage backends.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// Location is a parsed "s3://bucket/key" URL.
type Location struct {
	Bucket string
	Key    string
}

func (l Location) String() string {
	return "s3://" + l.Bucket + "/" + l.Key
}

// IsS3URL reports whether raw uses the s3 scheme.
func IsS3URL(raw string) bool {
	return strings.HasPrefix(raw, "s3://")
}

// ParseURL splits an s3 URL into bucket and key.
func ParseURL(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("invalid s3 url %q: %w", raw, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return Location{}, fmt.Errorf("invalid s3 url %q: want s3://bucket/key", raw)
	}
	return Location{Bucket: u.Host, Key: strings.TrimPrefix(u.Path, "/")}, nil
}

// JoinKey joins key segments with forward slashes, skipping empty ones.
func JoinKey(parts ...string) string {
	var keep []string
	for _, p := range parts {
		p = strings.Trim(strings.ReplaceAll(p, "\\", "/"), "/")
		if p != "" {
			keep = append(keep, p)
		}
	}
	return strings.Join(keep, "/")
}
