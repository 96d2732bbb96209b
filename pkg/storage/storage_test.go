package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	require.NoError(t, store.Put(ctx, "reports/2024/report.json", []byte(`{"ok":true}`)))
	require.NoError(t, store.Put(ctx, "reports/2024/dashboard.html", []byte("<html></html>")))
	require.NoError(t, store.Put(ctx, "history.jsonl", []byte("{}\n")))

	data, err := store.Get(ctx, "reports/2024/report.json")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))

	keys, err := store.List(ctx, "reports")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"reports/2024/report.json", "reports/2024/dashboard.html"}, keys)

	keys, err = store.List(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestLocalStore_NotFound(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	_, err := store.Get(context.Background(), "nope.csv")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseURL(t *testing.T) {
	loc, err := ParseURL("s3://pier-logs/yakhroma/log.csv")
	require.NoError(t, err)
	assert.Equal(t, "pier-logs", loc.Bucket)
	assert.Equal(t, "yakhroma/log.csv", loc.Key)
	assert.Equal(t, "s3://pier-logs/yakhroma/log.csv", loc.String())

	loc, err = ParseURL("s3://pier-logs")
	require.NoError(t, err)
	assert.Equal(t, "", loc.Key)

	_, err = ParseURL("https://example.com/log.csv")
	assert.Error(t, err)
	_, err = ParseURL("s3:///no-bucket")
	assert.Error(t, err)

	assert.True(t, IsS3URL("s3://a/b"))
	assert.False(t, IsS3URL("/tmp/a"))
}

func TestJoinKey(t *testing.T) {
	assert.Equal(t, "a/b/c.json", JoinKey("a/", "/b", "", "c.json"))
	assert.Equal(t, "c.json", JoinKey("", "c.json"))
	assert.Equal(t, "x/y", JoinKey(`x\`, "y"))
}
