package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/DrSkyle/pierwatch/pkg/config"
	"github.com/DrSkyle/pierwatch/pkg/storage"
)

// Source yields the raw CSV of the pier log.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// FileSource reads a local file.
type FileSource struct {
	Path string
}

func (s FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	return f, nil
}

func (s FileSource) String() string { return s.Path }

// HTTPSource downloads the log, e.g. a spreadsheet CSV export.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download log: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to download log: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func (s HTTPSource) String() string { return s.URL }

// BlobSource reads one key from a BlobStore.
type BlobSource struct {
	Store storage.BlobStore
	Key   string
	Name  string
}

func (s BlobSource) Open(ctx context.Context) (io.ReadCloser, error) {
	data, err := s.Store.Get(ctx, s.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch log: %w", err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s BlobSource) String() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Key
}

// SourceOptions carries the clients OpenSource may need.
type SourceOptions struct {
	HTTPClient *http.Client
	// Store overrides the S3 store built from the default AWS config.
	Store storage.BlobStore
}

// OpenSource picks a Source by URI scheme: s3://, http(s)://, file:// or a
// bare path.
func OpenSource(ctx context.Context, uri string, opts SourceOptions) (Source, error) {
	switch {
	case uri == "":
		return nil, fmt.Errorf("%w: empty source", ErrUnsupportedSource)
	case storage.IsS3URL(uri):
		loc, err := storage.ParseURL(uri)
		if err != nil {
			return nil, err
		}
		store := opts.Store
		if store == nil {
			s3Store, _, err := storage.NewS3StoreFromURL(ctx, uri)
			if err != nil {
				return nil, err
			}
			store = s3Store
		}
		return BlobSource{Store: store, Key: loc.Key, Name: uri}, nil
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return HTTPSource{URL: uri, Client: opts.HTTPClient}, nil
	case strings.HasPrefix(uri, "file://"):
		return FileSource{Path: strings.TrimPrefix(uri, "file://")}, nil
	case strings.Contains(uri, "://"):
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, uri)
	default:
		return FileSource{Path: uri}, nil
	}
}

// Load opens src and reads it.
func Load(ctx context.Context, src Source, cfg config.IngestConfig) (*Dataset, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Read(ctx, rc, cfg)
}
