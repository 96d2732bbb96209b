package history

import (
	"context"
	"errors"

	"github.com/DrSkyle/pierwatch/pkg/storage"
)

// BlobBackend keeps the ledger as a single object in a blob store.
type BlobBackend struct {
	Store storage.BlobStore
	Key   string
}

// NewBackend returns a BlobBackend for s3:// locations and a FileBackend
// for anything else. An empty location means the default ledger path.
func NewBackend(ctx context.Context, location string) (Backend, error) {
	if !storage.IsS3URL(location) {
		return NewLocalBackend(location), nil
	}
	store, key, err := storage.NewS3StoreFromURL(ctx, location)
	if err != nil {
		return nil, err
	}
	if key == "" {
		key = "history.jsonl"
	}
	return &BlobBackend{Store: store, Key: key}, nil
}

// Append rewrites the whole object; blob stores have no append.
func (b *BlobBackend) Append(ctx context.Context, s Snapshot) error {
	existing, err := b.Load(ctx, 0)
	if err != nil {
		return err
	}
	data, err := encode(append(existing, s))
	if err != nil {
		return err
	}
	return b.Store.Put(ctx, b.Key, data)
}

func (b *BlobBackend) Load(ctx context.Context, n int) ([]Snapshot, error) {
	data, err := b.Store.Get(ctx, b.Key)
	if errors.Is(err, storage.ErrNotFound) {
		return []Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(data, n)
}
