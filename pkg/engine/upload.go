package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DrSkyle/pierwatch/pkg/engine/report"
	"github.com/DrSkyle/pierwatch/pkg/storage"
)

// UploadArtifacts copies the report files to the s3 output target and
// returns the dashboard location. It does nothing without a target.
func (e *Engine) UploadArtifacts(ctx context.Context, paths []string) (string, error) {
	if e.s3Target == "" {
		return "", nil
	}

	loc, err := storage.ParseURL(e.s3Target)
	if err != nil {
		return "", err
	}
	store := e.store
	if store == nil {
		s3Store, _, err := storage.NewS3StoreFromURL(ctx, e.s3Target)
		if err != nil {
			return "", fmt.Errorf("failed to load aws config for upload: %w", err)
		}
		store = s3Store
	}

	e.Logger.Info("Uploading artifacts to S3", "bucket", loc.Bucket, "prefix", loc.Key)

	var dashboard string
	failed := 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		name := filepath.Base(path)
		key := storage.JoinKey(loc.Key, name)
		if err := store.Put(ctx, key, data); err != nil {
			// Keep uploading the other files.
			e.Logger.Warn("Failed to upload artifact", "file", name, "error", err)
			failed++
			continue
		}
		if name == report.DashboardFile {
			dashboard = storage.Location{Bucket: loc.Bucket, Key: key}.String()
		}
	}
	if failed > 0 {
		return dashboard, fmt.Errorf("%d of %d artifacts not uploaded", failed, len(paths))
	}
	return dashboard, nil
}
